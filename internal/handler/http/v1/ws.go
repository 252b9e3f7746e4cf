package v1

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shenikar/incident_dispatch/internal/broadcast"
	"github.com/shenikar/incident_dispatch/internal/subscription"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// доступ ограничен API-ключом, origin не проверяется
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ControlMessage - управляющее сообщение наблюдателя
type ControlMessage struct {
	Action string  `json:"action" validate:"required,oneof=subscribe unsubscribe"`
	FeedID FeedRef `json:"feed_id" validate:"required"`
}

// FeedRef принимает id камеры строкой или числом
type FeedRef string

func (f *FeedRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FeedRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FeedRef(n.String())
	return nil
}

// @Summary Live incident feed
// @Description Websocket of live events. /ws/{feedId} subscribes to one feed on connect; control messages subscribe and unsubscribe.
// @Tags Observers
// @Security ApiKeyAuth
// @Param feedId path string false "Feed ID or global"
// @Success 101 "Switching Protocols"
// @Failure 400 {object} map[string]string "Invalid feed ID"
// @Router /ws/{feedId} [get]
func (h *Handler) serveWS(c *gin.Context) {
	log := h.logger.WithField("method", "serveWS")

	initial := c.Param("feedId")
	if initial != "" {
		feed, err := subscription.ValidateFeed(initial)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		initial = feed
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := broadcast.NewClient(conn, h.cfg.ObserverBuffer)
	log = log.WithField("conn_id", client.ID())
	h.registry.Connect(client)
	log.Info("Observer connected")

	go client.WritePump()

	if initial != "" {
		h.subscribe(client, log, initial)
	}

	client.ReadPump(func(msg []byte) {
		h.handleControl(client, log, msg)
	})

	h.registry.DropConnection(client.ID())
	log.Info("Observer disconnected")
}

func (h *Handler) handleControl(client *broadcast.Client, log *logrus.Entry, msg []byte) {
	var ctrl ControlMessage
	if err := json.Unmarshal(msg, &ctrl); err != nil {
		h.sendError(client, log, "", "invalid control message")
		return
	}
	if err := h.validate.Struct(ctrl); err != nil {
		h.sendError(client, log, string(ctrl.FeedID), err.Error())
		return
	}

	switch ctrl.Action {
	case "subscribe":
		h.subscribe(client, log, string(ctrl.FeedID))
	case "unsubscribe":
		if err := h.registry.Unsubscribe(client.ID(), string(ctrl.FeedID)); err != nil {
			h.sendError(client, log, string(ctrl.FeedID), err.Error())
			return
		}
		h.ack(client, log, broadcast.EventUnsubscribed, string(ctrl.FeedID))
	}
}

func (h *Handler) subscribe(client *broadcast.Client, log *logrus.Entry, feedID string) {
	if err := h.registry.Subscribe(client.ID(), feedID); err != nil {
		h.sendError(client, log, feedID, err.Error())
		return
	}
	canonical, _ := subscription.ValidateFeed(feedID)
	h.ack(client, log, broadcast.EventSubscribed, canonical)
}

// ack подтверждает действие и возвращает текущий набор подписок соединения
func (h *Handler) ack(client *broadcast.Client, log *logrus.Entry, event, feedID string) {
	data := broadcast.ControlAck{FeedID: feedID, Subscriptions: h.registry.Subscriptions(client.ID())}
	if err := client.SendEvent(broadcast.Event{Type: event, Data: data}); err != nil {
		log.WithError(err).Debug("Failed to queue control acknowledgement")
	}
}

func (h *Handler) sendError(client *broadcast.Client, log *logrus.Entry, feedID, message string) {
	log.WithField("feed_id", feedID).Info("Rejected control message: " + message)
	if err := client.SendEvent(broadcast.Event{Type: broadcast.EventError, Data: broadcast.ControlError{FeedID: feedID, Message: message}}); err != nil {
		log.WithError(err).Debug("Failed to queue control error")
	}
}
