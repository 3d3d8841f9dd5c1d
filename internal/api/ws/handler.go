package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/bugfinder/internal/domain/analysis"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/monitoring"
)

// Message types
const (
	TypeAnalyze = "analyze"
	TypeStatus  = "status"
	TypeResult  = "result"
	TypePing    = "ping"
	TypePong    = "pong"
	TypeError   = "error"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origins are enforced by the CORS middleware
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Analyzer reports the Checking status through progress before the result
type Analyzer interface {
	AnalyzeWithProgress(ctx context.Context, source string, progress analysis.ProgressFunc) analysis.Result
}

// Message is a client request
type Message struct {
	Type string  `json:"type"`
	ID   string  `json:"id,omitempty"`
	Code *string `json:"code,omitempty"`
}

// Reply is a server message
type Reply struct {
	Type      string           `json:"type"`
	ID        string           `json:"id,omitempty"`
	Result    *analysis.Result `json:"result,omitempty"`
	Message   string           `json:"message,omitempty"`
	Timestamp int64            `json:"timestamp"`
}

// Handler manages WebSocket connections
type Handler struct {
	analyzer Analyzer
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(analyzer Analyzer, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		analyzer: analyzer,
		metrics:  metrics,
		logger:   logger,
	}
}

// HandleConnection upgrades the request and serves messages until the
// client disconnects. Requests on one connection are handled in order, so
// every status is followed by its result before the next run starts.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	ctx := c.Request.Context()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.record("in", "invalid")
			if h.sendError(conn, "", "invalid message: "+err.Error()) != nil {
				return
			}
			continue
		}
		h.record("in", knownType(msg.Type))

		if err := h.dispatch(ctx, conn, msg); err != nil {
			h.logger.Debug("WebSocket write error", zap.Error(err))
			return
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, conn *websocket.Conn, msg Message) error {
	switch msg.Type {
	case TypeAnalyze:
		return h.handleAnalyze(ctx, conn, msg)
	case TypePing:
		return h.send(conn, Reply{Type: TypePong, ID: msg.ID})
	default:
		return h.sendError(conn, msg.ID, "unknown message type")
	}
}

func (h *Handler) handleAnalyze(ctx context.Context, conn *websocket.Conn, msg Message) error {
	if msg.Code == nil {
		return h.sendError(conn, msg.ID, "code is required")
	}

	var writeErr error
	result := h.analyzer.AnalyzeWithProgress(ctx, *msg.Code, func(status analysis.Result) {
		writeErr = h.send(conn, Reply{Type: TypeStatus, ID: msg.ID, Result: &status})
	})
	if writeErr != nil {
		return writeErr
	}

	return h.send(conn, Reply{Type: TypeResult, ID: msg.ID, Result: &result})
}

func (h *Handler) send(conn *websocket.Conn, reply Reply) error {
	reply.Timestamp = time.Now().Unix()
	data, err := sonic.Marshal(reply)
	if err != nil {
		return err
	}

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	h.record("out", reply.Type)
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Handler) sendError(conn *websocket.Conn, id, message string) error {
	return h.send(conn, Reply{Type: TypeError, ID: id, Message: message})
}

func knownType(t string) string {
	switch t {
	case TypeAnalyze, TypePing:
		return t
	default:
		return "unknown"
	}
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}
