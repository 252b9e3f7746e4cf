package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shenikar/incident_dispatch/internal/subscription"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMessage = 4096
)

// WSConn - часть *websocket.Conn, нужная клиенту
type WSConn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client - наблюдатель поверх websocket: ограниченный буфер и одна пишущая горутина
type Client struct {
	id   string
	conn WSConn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

var _ subscription.Observer = (*Client)(nil)

func NewClient(conn WSConn, buffer int) *Client {
	if buffer <= 0 {
		buffer = 1
	}
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// Send ставит кадр в очередь без блокировки
func (c *Client) Send(payload []byte) error {
	select {
	case <-c.done:
		return subscription.ErrClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return subscription.ErrClosed
	default:
		return subscription.ErrBufferFull
	}
}

// SendEvent отправляет событие только этому клиенту
func (c *Client) SendEvent(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.Send(payload)
}

// Close останавливает пишущую горутину и закрывает соединение; повторный вызов безопасен
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Done закрывается вместе с клиентом
func (c *Client) Done() <-chan struct{} { return c.done }

// WritePump пишет кадры из буфера в порядке поступления и шлет ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// ReadPump читает управляющие сообщения и передает их handle до разрыва соединения
func (c *Client) ReadPump(handle func(msg []byte)) {
	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		handle(msg)
	}
}
