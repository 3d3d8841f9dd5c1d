package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/tracing"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.Name = "test"
	cfg.BaseURL = baseURL
	cfg.Timeout = 2 * time.Second
	cfg.RetryMax = 2
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	return cfg
}

type echo struct {
	Message string `json:"message"`
}

func TestPostJSON(t *testing.T) {
	var auth, trace string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		trace = r.Header.Get(tracing.HeaderTraceID)

		var in echo
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(echo{Message: "got " + in.Message})
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), nil)
	client.SetBearerAuth("secret")

	tracer := tracing.New("test", nil)
	span, ctx := tracer.StartSpan(context.Background(), "call")

	var out echo
	err := client.PostJSON(ctx, "/echo", echo{Message: "hi"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "got hi", out.Message)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, string(span.TraceID), trace)
}

func TestPostJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"recovered"}`))
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), nil)

	var out echo
	require.NoError(t, client.PostJSON(context.Background(), "/", echo{}, &out))
	assert.Equal(t, "recovered", out.Message)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestPostJSONClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad key"))
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), nil)
	err := client.PostJSON(context.Background(), "/", echo{}, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Equal(t, "bad key", statusErr.Body)
	assert.Equal(t, resilience.StateClosed, client.BreakerState())
}

func TestPostJSONBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RetryMax = 0
	client := New(cfg, nil)

	for i := 0; i < 10; i++ {
		err := client.PostJSON(context.Background(), "/", echo{}, nil)
		require.Error(t, err)
	}

	assert.Equal(t, resilience.StateOpen, client.BreakerState())
	assert.ErrorIs(t, client.PostJSON(context.Background(), "/", echo{}, nil), ErrUnavailable)
}

func TestPostJSONCanceledContext(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.RequestsPerSecond = 1
	client := New(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, client.PostJSON(ctx, "/", echo{}, nil))
}

func TestNewLimiter(t *testing.T) {
	assert.Equal(t, 0, newLimiter(0).Burst())
	assert.Equal(t, 1, newLimiter(0.5).Burst())
	assert.Equal(t, 4, newLimiter(4).Burst())
}
