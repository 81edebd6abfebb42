package gateway

import (
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

// startReceivers serves every host on one in-memory listener; handlers are
// picked by the Host header.
func startReceivers(t *testing.T, handlers map[string]fasthttp.RequestHandler) fasthttp.DialFunc {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		h, ok := handlers[string(ctx.Host())]
		if !ok {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			return
		}
		h(ctx)
	}}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })
	return func(string) (net.Conn, error) { return ln.Dial() }
}

func accept(hits *atomic.Int32) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		hits.Add(1)
		var d Delivery
		if err := json.Unmarshal(ctx.PostBody(), &d); err != nil || string(ctx.Path()) != DeliveryPath {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			return
		}
		b, _ := json.Marshal(Receipt{EventID: d.EventID, Status: "received", ReceiptID: "r-1", ReceivedAt: time.Now().UTC()})
		ctx.SetContentType("application/json")
		ctx.SetBody(b)
	}
}

func fail(hits *atomic.Int32) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		hits.Add(1)
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	}
}

func newTestClient(t *testing.T, dial fasthttp.DialFunc, threshold int) *Client {
	t.Helper()
	cfg := DefaultConfig("http://primary", "http://secondary")
	cfg.Timeout = time.Second
	cfg.CircuitBreakerThreshold = threshold
	cfg.Dial = dial
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func delivery() *Delivery {
	return &Delivery{EventID: "evt-1", Type: "purchase.approved", Payload: json.RawMessage(`{"id":5}`)}
}

func TestClient_DeliverPrimary(t *testing.T) {
	var primary, secondary atomic.Int32
	dial := startReceivers(t, map[string]fasthttp.RequestHandler{
		"primary":   accept(&primary),
		"secondary": accept(&secondary),
	})
	c := newTestClient(t, dial, 3)

	receipt, err := c.Deliver(context.Background(), delivery())
	require.NoError(t, err)
	assert.Equal(t, "evt-1", receipt.EventID)
	assert.Equal(t, "received", receipt.Status)
	assert.Equal(t, "primary", receipt.Endpoint)
	assert.Equal(t, int32(1), primary.Load())
	assert.Equal(t, int32(0), secondary.Load())
}

func TestClient_FailsOverToSecondary(t *testing.T) {
	var primary, secondary atomic.Int32
	dial := startReceivers(t, map[string]fasthttp.RequestHandler{
		"primary":   fail(&primary),
		"secondary": accept(&secondary),
	})
	c := newTestClient(t, dial, 2)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		receipt, err := c.Deliver(ctx, delivery())
		require.NoError(t, err)
		assert.Equal(t, "secondary", receipt.Endpoint)
	}

	// the primary circuit opens after two failures
	assert.Equal(t, int32(2), primary.Load())
	assert.Equal(t, int32(4), secondary.Load())

	stats := c.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "CIRCUIT_OPEN", stats[0].State)
	assert.Equal(t, "HEALTHY", stats[1].State)
}

func TestClient_CircuitCloses(t *testing.T) {
	var primary, secondary atomic.Int32
	dial := startReceivers(t, map[string]fasthttp.RequestHandler{
		"primary":   fail(&primary),
		"secondary": accept(&secondary),
	})
	c := newTestClient(t, dial, 1)
	now := time.Now()
	c.now = func() time.Time { return now }

	_, err := c.Deliver(context.Background(), delivery())
	require.NoError(t, err)
	assert.False(t, c.endpoints[0].IsAvailable(now))

	assert.True(t, c.endpoints[0].IsAvailable(now.Add(c.config.CircuitBreakerTimeout+time.Second)))
	assert.Equal(t, StateHealthy, c.endpoints[0].State())
}

func TestClient_AllEndpointsFail(t *testing.T) {
	var primary, secondary atomic.Int32
	dial := startReceivers(t, map[string]fasthttp.RequestHandler{
		"primary":   fail(&primary),
		"secondary": fail(&secondary),
	})
	c := newTestClient(t, dial, 5)

	_, err := c.Deliver(context.Background(), delivery())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evt-1")
}

func TestClient_RejectedIsReported(t *testing.T) {
	dial := startReceivers(t, map[string]fasthttp.RequestHandler{
		"primary": func(ctx *fasthttp.RequestCtx) { ctx.SetStatusCode(fasthttp.StatusBadRequest) },
	})
	cfg := DefaultConfig("http://primary")
	cfg.Dial = dial
	c, err := NewClient(cfg)
	require.NoError(t, err)

	_, err = c.Deliver(context.Background(), delivery())
	assert.ErrorIs(t, err, ErrRejected)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	_, err = NewClient(DefaultConfig("", ""))
	assert.Error(t, err)

	cfg := DefaultConfig("http://a", "", "http://c")
	require.Len(t, cfg.Endpoints, 2)
	assert.Equal(t, "primary", cfg.Endpoints[0].Name)
	assert.Equal(t, "endpoint-2", cfg.Endpoints[1].Name)
}

func TestEndpointMetrics(t *testing.T) {
	var m EndpointMetrics
	m.RecordSuccess(100)
	m.RecordSuccess(300)
	m.RecordFailure()

	assert.Equal(t, int64(3), m.TotalRequests.Load())
	assert.InDelta(t, 0.666, m.SuccessRate(), 0.01)
	assert.Equal(t, int64(200), m.AvgLatencyMs())
	assert.Equal(t, int32(1), m.ConsecutiveFails.Load())
}
