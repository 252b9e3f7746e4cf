package broadcast

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shenikar/incident_dispatch/internal/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	written  [][]byte
	writeErr error
	closed   bool
	incoming chan []byte
}

func newFakeConn() *fakeConn { return &fakeConn{incoming: make(chan []byte, 8)} }

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	if messageType == websocket.TextMessage {
		f.written = append(f.written, data)
	}
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	msg, ok := <-f.incoming
	if !ok {
		return 0, nil, errors.New("closed")
	}
	return websocket.TextMessage, msg, nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error        { return nil }
func (f *fakeConn) SetReadDeadline(time.Time) error         { return nil }
func (f *fakeConn) SetReadLimit(int64)                      {}
func (f *fakeConn) SetPongHandler(func(appData string) error) {}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.written...)
}

func TestClient_SendIsNonBlocking(t *testing.T) {
	c := NewClient(newFakeConn(), 2)

	assert.NoError(t, c.Send([]byte("1")))
	assert.NoError(t, c.Send([]byte("2")))
	assert.ErrorIs(t, c.Send([]byte("3")), subscription.ErrBufferFull)

	c.Close()
	c.Close()
	assert.ErrorIs(t, c.Send([]byte("4")), subscription.ErrClosed)
}

func TestClient_WritePumpKeepsOrder(t *testing.T) {
	conn := newFakeConn()
	c := NewClient(conn, 8)
	go c.WritePump()

	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, c.Send([]byte(p)))
	}

	require.Eventually(t, func() bool { return len(conn.messages()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, conn.messages())
	c.Close()
}

func TestClient_WriteErrorClosesClient(t *testing.T) {
	conn := newFakeConn()
	conn.writeErr = errors.New("broken pipe")
	c := NewClient(conn, 1)
	go c.WritePump()

	require.NoError(t, c.Send([]byte("x")))

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("client was not closed after write error")
	}
	assert.ErrorIs(t, c.Send([]byte("y")), subscription.ErrClosed)
}

func TestClient_ReadPump(t *testing.T) {
	conn := newFakeConn()
	c := NewClient(conn, 1)
	conn.incoming <- []byte(`{"action":"subscribe","feed_id":"1"}`)
	conn.incoming <- []byte(`{"action":"unsubscribe","feed_id":"1"}`)
	close(conn.incoming)

	var got []string
	c.ReadPump(func(msg []byte) { got = append(got, string(msg)) })

	assert.Len(t, got, 2)
}
