package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/bugfinder/internal/domain/analysis"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/bugfinder/internal/providers/sandbox"
)

func dial(t *testing.T) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	executor, err := sandbox.NewExecutor(sandbox.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = executor.Close() })

	metrics := monitoring.NewMetrics()
	handler := NewHandler(analysis.NewAnalyzer(executor), metrics, nil)

	router := gin.New()
	router.GET("/api/analyze/stream", handler.HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/analyze/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Reply {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	var reply Reply
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestAnalyzeStatusThenResult(t *testing.T) {
	conn := dial(t)

	code := "undefinedVar + 1"
	require.NoError(t, conn.WriteJSON(Message{Type: TypeAnalyze, ID: "run-1", Code: &code}))

	status := read(t, conn)
	assert.Equal(t, TypeStatus, status.Type)
	assert.Equal(t, "run-1", status.ID)
	require.NotNil(t, status.Result)
	assert.Equal(t, analysis.CategoryChecking, status.Result.Category)

	result := read(t, conn)
	assert.Equal(t, TypeResult, result.Type)
	require.NotNil(t, result.Result)
	assert.Equal(t, analysis.CategoryReferenceError, result.Result.Category)
	assert.Equal(t, status.Result.RunID, result.Result.RunID)
}

func TestSequentialRunsOnOneConnection(t *testing.T) {
	conn := dial(t)

	first := "function f( {"
	second := "console.log('hi')"
	require.NoError(t, conn.WriteJSON(Message{Type: TypeAnalyze, Code: &first}))
	require.NoError(t, conn.WriteJSON(Message{Type: TypeAnalyze, Code: &second}))

	var categories []analysis.Category
	for i := 0; i < 4; i++ {
		reply := read(t, conn)
		require.NotNil(t, reply.Result)
		categories = append(categories, reply.Result.Category)
	}

	assert.Equal(t, []analysis.Category{
		analysis.CategoryChecking,
		analysis.CategorySyntaxError,
		analysis.CategoryChecking,
		analysis.CategoryNoError,
	}, categories)
}

func TestPingPong(t *testing.T) {
	conn := dial(t)

	require.NoError(t, conn.WriteJSON(Message{Type: TypePing, ID: "p"}))
	reply := read(t, conn)

	assert.Equal(t, TypePong, reply.Type)
	assert.Equal(t, "p", reply.ID)
	assert.NotZero(t, reply.Timestamp)
}

func TestErrors(t *testing.T) {
	conn := dial(t)

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{name: "unknown type", payload: `{"type":"launch"}`, want: "unknown message type"},
		{name: "missing code", payload: `{"type":"analyze"}`, want: "code is required"},
		{name: "invalid json", payload: `{"type":`, want: "invalid message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.payload)))
			reply := read(t, conn)
			assert.Equal(t, TypeError, reply.Type)
			assert.Contains(t, reply.Message, tt.want)
		})
	}
}
