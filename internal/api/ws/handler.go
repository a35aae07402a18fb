package ws

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/schedctl/internal/domain/sched"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Message is the envelope for every frame sent to a client
type Message struct {
	Type    string            `json:"type"`
	Message string            `json:"message,omitempty"`
	Event   *sched.TraceEvent `json:"event,omitempty"`
}

// Handler streams scheduler trace events to websocket clients
type Handler struct {
	events   *sched.Broadcaster
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(events *sched.Broadcaster, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		events: events,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // CORS middleware governs browser access
			},
		},
	}
}

// HandleConnection upgrades the request and forwards trace events until the
// client goes away or the request context ends. Clients send nothing; any
// inbound frames are discarded.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := h.events.Subscribe()
	defer cancel()

	logger := h.logger.With(
		zap.String("conn_id", uuid.NewString()),
		zap.String("remote", c.ClientIP()),
	)
	logger.Debug("Trace subscriber connected")
	defer logger.Debug("Trace subscriber disconnected")

	if err := h.send(conn, Message{Type: "system", Message: "subscribed to scheduler trace"}); err != nil {
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.send(conn, Message{Type: "trace", Event: &ev}); err != nil {
				logger.Debug("WebSocket write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, msg Message) error {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
