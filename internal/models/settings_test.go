package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorityFor(t *testing.T) {
	cases := map[Category]Authority{
		CategoryTrafficViolation: AuthorityTrafficAuthority,
		CategoryCrime:            AuthorityPolice,
		CategoryCivicIssue:       AuthorityMunicipal,
		CategoryEmergency:        AuthorityFireDepartment,
	}
	for c, want := range cases {
		got, ok := AuthorityFor(c)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := AuthorityFor("unknown")
	assert.False(t, ok)
}

func TestRecipientsFor(t *testing.T) {
	s := Settings{
		Email: EmailSettings{
			Recipients: []string{"ops@city.gov", " ", "ops@city.gov"},
			CategoryRecipients: map[Category][]string{
				CategoryEmergency: {"fire@city.gov", "ops@city.gov"},
			},
		},
		Webhooks: WebhookSettings{FireDepartmentURL: " https://fire.example/hook "},
		SMS:      SMSSettings{Recipients: []string{"+15550001", "+15550001", ""}},
	}

	assert.Equal(t, []string{"ops@city.gov", "fire@city.gov"}, s.RecipientsFor(ChannelEmail, CategoryEmergency))
	assert.Equal(t, []string{"ops@city.gov"}, s.RecipientsFor(ChannelEmail, CategoryCrime))
	assert.Equal(t, []string{"https://fire.example/hook"}, s.RecipientsFor(ChannelWebhook, CategoryEmergency))
	assert.Empty(t, s.RecipientsFor(ChannelWebhook, CategoryCrime))
	assert.Equal(t, []string{"+15550001"}, s.RecipientsFor(ChannelSMS, CategoryCivicIssue))
}

func TestWithDefaults_KeepsOverrides(t *testing.T) {
	s := Settings{Detection: map[Category]float64{CategoryEmergency: 0.5}}.WithDefaults()

	assert.Equal(t, 0.5, s.Detection[CategoryEmergency])
	assert.Equal(t, 0.7, s.Detection[CategoryTrafficViolation])
	assert.Len(t, s.Detection, 4)
}

func TestDispatchReport_FullyFailed(t *testing.T) {
	r := &DispatchReport{Attempts: []NotificationAttempt{{Status: AttemptFailed}, {Status: AttemptSent}}}
	assert.False(t, r.FullyFailed())
	assert.Equal(t, 1, r.SentCount())

	r = &DispatchReport{Attempts: []NotificationAttempt{{Status: AttemptFailed}}}
	assert.True(t, r.FullyFailed())

	r = &DispatchReport{Duplicate: true}
	assert.False(t, r.FullyFailed())

	r = &DispatchReport{}
	assert.False(t, r.FullyFailed())
}

func TestSettings_RedactedAndKeepSecrets(t *testing.T) {
	stored := Settings{
		Email:    EmailSettings{Password: "smtp-pass"},
		Webhooks: WebhookSettings{Secret: "hmac"},
		SMS:      SMSSettings{APIKey: "key"},
	}

	public := stored.Redacted()
	assert.Empty(t, public.Email.Password)
	assert.Empty(t, public.Webhooks.Secret)
	assert.Empty(t, public.SMS.APIKey)
	assert.Equal(t, "smtp-pass", stored.Email.Password)

	incoming := public
	incoming.SMS.APIKey = "rotated"
	merged := incoming.KeepSecrets(stored)
	assert.Equal(t, "smtp-pass", merged.Email.Password)
	assert.Equal(t, "hmac", merged.Webhooks.Secret)
	assert.Equal(t, "rotated", merged.SMS.APIKey)
}
