package subscription

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubObserver struct {
	id     string
	closed atomic.Int32
}

func (s *stubObserver) ID() string          { return s.id }
func (s *stubObserver) Send(_ []byte) error { return nil }
func (s *stubObserver) Close()              { s.closed.Add(1) }

func ids(observers []Observer) []string {
	out := make([]string, 0, len(observers))
	for _, o := range observers {
		out = append(out, o.ID())
	}
	return out
}

func TestValidateFeed(t *testing.T) {
	for _, ok := range []string{"global", "1", "42", "007"} {
		_, err := ValidateFeed(ok)
		assert.NoError(t, err, ok)
	}
	canon, _ := ValidateFeed("007")
	assert.Equal(t, "7", canon)

	for _, bad := range []string{"", "0", "-3", "abc", "1.5", "GLOBAL"} {
		_, err := ValidateFeed(bad)
		assert.ErrorIs(t, err, ErrInvalidFeed, bad)
	}
}

func TestRegistry_SubscribeAndTargets(t *testing.T) {
	r := NewRegistry()
	a, b, c := &stubObserver{id: "a"}, &stubObserver{id: "b"}, &stubObserver{id: "c"}
	r.Connect(a)
	r.Connect(b)
	r.Connect(c)

	require.NoError(t, r.Subscribe("a", "42"))
	require.NoError(t, r.Subscribe("b", "7"))
	require.NoError(t, r.Subscribe("c", Global))
	require.NoError(t, r.Subscribe("c", "42"))

	assert.Equal(t, []string{"a", "c"}, r.SubscribersFor("42"))
	assert.ElementsMatch(t, []string{"a", "c"}, ids(r.Targets("42", Global)))
	assert.ElementsMatch(t, []string{"b", "c"}, ids(r.Targets("7", Global)))
	assert.Empty(t, r.Targets("99"))
	assert.Equal(t, []string{"42", Global}, r.Subscriptions("c"))
}

func TestRegistry_Errors(t *testing.T) {
	r := NewRegistry()
	r.Connect(&stubObserver{id: "a"})

	assert.ErrorIs(t, r.Subscribe("a", "-1"), ErrInvalidFeed)
	assert.ErrorIs(t, r.Subscribe("missing", "1"), ErrUnknownConnection)
	assert.ErrorIs(t, r.Unsubscribe("missing", "1"), ErrUnknownConnection)
	assert.NoError(t, r.Unsubscribe("a", "5"))
}

func TestRegistry_Unsubscribe(t *testing.T) {
	r := NewRegistry()
	r.Connect(&stubObserver{id: "a"})
	require.NoError(t, r.Subscribe("a", "42"))
	require.NoError(t, r.Unsubscribe("a", "42"))

	assert.Empty(t, r.SubscribersFor("42"))
	assert.Empty(t, r.Subscriptions("a"))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_DropConnectionIsIdempotent(t *testing.T) {
	r := NewRegistry()
	a := &stubObserver{id: "a"}
	r.Connect(a)
	require.NoError(t, r.Subscribe("a", "42"))
	require.NoError(t, r.Subscribe("a", Global))

	r.DropConnection("a")
	r.DropConnection("a")

	assert.Equal(t, int32(1), a.closed.Load())
	assert.Zero(t, r.Len())
	assert.Empty(t, r.SubscribersFor("42"))
	assert.Empty(t, r.SubscribersFor(Global))
	assert.ErrorIs(t, r.Subscribe("a", "42"), ErrUnknownConnection)
}

func TestRegistry_ConcurrentMutationsAndReads(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := fmt.Sprintf("conn-%d", i)
		go func() {
			defer wg.Done()
			r.Connect(&stubObserver{id: id})
			_ = r.Subscribe(id, "1")
			_ = r.Subscribe(id, Global)
			if i%2 == 0 {
				r.DropConnection(id)
			}
		}()
		go func() {
			defer wg.Done()
			// снимок всегда согласован: каждый возвращенный наблюдатель зарегистрирован
			for _, o := range r.Targets("1", Global) {
				assert.NotEmpty(t, o.ID())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 25, r.Len())
	assert.Len(t, r.Targets("1", Global), 25)
}
