package broadcast

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shenikar/incident_dispatch/internal/models"
	"github.com/shenikar/incident_dispatch/internal/subscription"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	id  string
	err error

	mu       sync.Mutex
	received [][]byte
	closed   bool
}

func (o *recordingObserver) ID() string { return o.id }

func (o *recordingObserver) Send(payload []byte) error {
	if o.err != nil {
		return o.err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.received = append(o.received, payload)
	return nil
}

func (o *recordingObserver) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

func (o *recordingObserver) events(t *testing.T) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.received))
	for _, p := range o.received {
		var frame struct {
			Event string `json:"event"`
		}
		require.NoError(t, json.Unmarshal(p, &frame))
		out = append(out, frame.Event)
	}
	return out
}

func setup(t *testing.T, observers map[string][]string) (*Broadcaster, *subscription.Registry, map[string]*recordingObserver) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	registry := subscription.NewRegistry()
	byID := make(map[string]*recordingObserver)
	for id, feeds := range observers {
		o := &recordingObserver{id: id}
		byID[id] = o
		registry.Connect(o)
		for _, f := range feeds {
			require.NoError(t, registry.Subscribe(id, f))
		}
	}
	return NewBroadcaster(registry, logger), registry, byID
}

func TestBroadcast_IncidentRouting(t *testing.T) {
	b, _, obs := setup(t, map[string][]string{
		"feed42": {"42"},
		"feed7":  {"7"},
		"global": {subscription.Global},
		"both":   {"42", subscription.Global},
	})

	n := b.Broadcast(NewIncidentDetected(models.Incident{ID: 1, FeedID: 42, Category: models.CategoryCrime}))

	assert.Equal(t, 3, n)
	assert.Equal(t, []string{EventIncidentDetected}, obs["feed42"].events(t))
	assert.Equal(t, []string{EventIncidentDetected}, obs["global"].events(t))
	assert.Equal(t, []string{EventIncidentDetected}, obs["both"].events(t), "observer on feed and global gets one copy")
	assert.Empty(t, obs["feed7"].events(t))
}

func TestBroadcast_FeedStatusGoesToFeedOnly(t *testing.T) {
	b, _, obs := setup(t, map[string][]string{
		"feed42": {"42"},
		"global": {subscription.Global},
	})

	n := b.Broadcast(NewFeedStatusChanged(42, models.FeedStatusOffline))

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{EventFeedStatus}, obs["feed42"].events(t))
	assert.Empty(t, obs["global"].events(t))

	var frame struct {
		Event string         `json:"event"`
		Data  FeedStatusData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(obs["feed42"].received[0], &frame))
	assert.Equal(t, int64(42), frame.Data.FeedID)
	assert.Equal(t, models.FeedStatusOffline, frame.Data.Status)
}

func TestBroadcast_DispatchFailedGoesToGlobalOnly(t *testing.T) {
	b, _, obs := setup(t, map[string][]string{
		"feed42": {"42"},
		"global": {subscription.Global},
	})

	b.DispatchFailed(context.Background(), &models.DispatchReport{IncidentID: 9})

	assert.Equal(t, []string{EventDispatchFailed}, obs["global"].events(t))
	assert.Empty(t, obs["feed42"].events(t))
}

func TestBroadcast_FullBufferDropsEventOnly(t *testing.T) {
	b, registry, obs := setup(t, map[string][]string{"ok": {"42"}})
	slow := &recordingObserver{id: "slow", err: subscription.ErrBufferFull}
	registry.Connect(slow)
	require.NoError(t, registry.Subscribe("slow", "42"))
	dropped := testutil.ToFloat64(droppedTotal.WithLabelValues("buffer_full"))

	n := b.Broadcast(NewIncidentDetected(models.Incident{ID: 1, FeedID: 42}))

	assert.Equal(t, 1, n)
	assert.Equal(t, dropped+1, testutil.ToFloat64(droppedTotal.WithLabelValues("buffer_full")))
	assert.Len(t, obs["ok"].received, 1)
	assert.Equal(t, 2, registry.Len(), "slow observer stays connected")
	assert.False(t, slow.closed)
}

func TestBroadcast_ClosedObserverIsDropped(t *testing.T) {
	b, registry, obs := setup(t, map[string][]string{"ok": {"42"}})
	gone := &recordingObserver{id: "gone", err: subscription.ErrClosed}
	registry.Connect(gone)
	require.NoError(t, registry.Subscribe("gone", "42"))

	n := b.Broadcast(NewIncidentDetected(models.Incident{ID: 1, FeedID: 42}))

	assert.Equal(t, 1, n)
	assert.Len(t, obs["ok"].received, 1)
	assert.Equal(t, 1, registry.Len())
	assert.Equal(t, []string{"ok"}, registry.SubscribersFor("42"))
	assert.True(t, gone.closed)
}

func TestBroadcast_NoSubscribers(t *testing.T) {
	b, _, _ := setup(t, nil)
	assert.Zero(t, b.Broadcast(NewIncidentDetected(models.Incident{ID: 1, FeedID: 42})))
}

func TestBroadcast_PreservesOrderPerObserver(t *testing.T) {
	b, _, obs := setup(t, map[string][]string{"o": {"42"}})

	for i := int64(1); i <= 5; i++ {
		b.Broadcast(NewIncidentDetected(models.Incident{ID: i, FeedID: 42}))
	}

	require.Len(t, obs["o"].received, 5)
	for i, p := range obs["o"].received {
		var frame struct {
			Data models.Incident `json:"data"`
		}
		require.NoError(t, json.Unmarshal(p, &frame))
		assert.Equal(t, int64(i+1), frame.Data.ID)
	}
}
