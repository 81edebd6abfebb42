package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimasrn/classroom-points/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	ErrNoAvailableEndpoints = errors.New("no available webhook endpoints")
	ErrRejected             = errors.New("webhook rejected the event")
)

const DeliveryPath = "/webhooks/purchases"

// Delivery is the body posted to a webhook endpoint.
type Delivery struct {
	EventID string          `json:"event_id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type Receipt struct {
	EventID    string    `json:"event_id"`
	Status     string    `json:"status"`
	ReceiptID  string    `json:"receipt_id"`
	ReceivedAt time.Time `json:"received_at"`
	Endpoint   string    `json:"-"`
}

type EndpointState int32

const (
	StateHealthy EndpointState = iota
	StateCircuitOpen
)

func (s EndpointState) String() string {
	switch s {
	case StateHealthy:
		return "HEALTHY"
	case StateCircuitOpen:
		return "CIRCUIT_OPEN"
	default:
		return "UNKNOWN"
	}
}

type EndpointMetrics struct {
	TotalRequests    atomic.Int64
	SuccessfulReqs   atomic.Int64
	FailedReqs       atomic.Int64
	TotalLatencyMs   atomic.Int64
	ConsecutiveFails atomic.Int32
}

func (m *EndpointMetrics) RecordSuccess(latencyMs int64) {
	m.TotalRequests.Add(1)
	m.SuccessfulReqs.Add(1)
	m.TotalLatencyMs.Add(latencyMs)
	m.ConsecutiveFails.Store(0)
}

func (m *EndpointMetrics) RecordFailure() {
	m.TotalRequests.Add(1)
	m.FailedReqs.Add(1)
	m.ConsecutiveFails.Add(1)
}

func (m *EndpointMetrics) SuccessRate() float64 {
	total := m.TotalRequests.Load()
	if total == 0 {
		return 1.0
	}
	return float64(m.SuccessfulReqs.Load()) / float64(total)
}

func (m *EndpointMetrics) AvgLatencyMs() int64 {
	ok := m.SuccessfulReqs.Load()
	if ok == 0 {
		return 0
	}
	return m.TotalLatencyMs.Load() / ok
}

// Endpoint is one webhook receiver. Endpoints are tried in configuration
// order, skipping any whose circuit is open.
type Endpoint struct {
	name             string
	url              string
	client           *fasthttp.Client
	metrics          *EndpointMetrics
	state            atomic.Int32
	circuitOpenUntil atomic.Int64
}

func NewEndpoint(name, url string, client *fasthttp.Client) *Endpoint {
	return &Endpoint{
		name:    name,
		url:     url,
		client:  client,
		metrics: &EndpointMetrics{},
	}
}

func (e *Endpoint) Name() string {
	return e.name
}

func (e *Endpoint) State() EndpointState {
	return EndpointState(e.state.Load())
}

func (e *Endpoint) IsAvailable(now time.Time) bool {
	if e.State() != StateCircuitOpen {
		return true
	}
	if now.UnixNano() > e.circuitOpenUntil.Load() {
		e.state.Store(int32(StateHealthy))
		return true
	}
	return false
}

type Config struct {
	Endpoints               []EndpointConfig
	Timeout                 time.Duration
	MaxConns                int
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration

	// Dial overrides how connections are made; nil uses TCP.
	Dial fasthttp.DialFunc
}

type EndpointConfig struct {
	Name string
	URL  string
}

func DefaultConfig(urls ...string) *Config {
	cfg := &Config{
		Timeout:                 5 * time.Second,
		MaxConns:                64,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
	}
	names := []string{"primary", "secondary"}
	for i, u := range urls {
		if u == "" {
			continue
		}
		name := fmt.Sprintf("endpoint-%d", i)
		if i < len(names) {
			name = names[i]
		}
		cfg.Endpoints = append(cfg.Endpoints, EndpointConfig{Name: name, URL: u})
	}
	return cfg
}

// Client delivers purchase events to webhook endpoints with failover.
type Client struct {
	config    *Config
	endpoints []*Endpoint
	mu        sync.RWMutex
	now       func() time.Time
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if len(config.Endpoints) == 0 {
		return nil, errors.New("at least one endpoint is required")
	}
	if config.CircuitBreakerThreshold <= 0 {
		config.CircuitBreakerThreshold = 5
	}

	c := &Client{
		config:    config,
		endpoints: make([]*Endpoint, 0, len(config.Endpoints)),
		now:       time.Now,
	}
	for _, ec := range config.Endpoints {
		httpClient := &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
			Dial:                config.Dial,
		}
		c.endpoints = append(c.endpoints, NewEndpoint(ec.Name, ec.URL, httpClient))
		logger.Info("webhook endpoint initialized", "name", ec.Name, "url", ec.URL)
	}
	return c, nil
}

// Deliver posts d to the first available endpoint that accepts it.
func (c *Client) Deliver(ctx context.Context, d *Delivery) (*Receipt, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal delivery: %w", err)
	}

	c.mu.RLock()
	endpoints := c.endpoints
	c.mu.RUnlock()

	lastErr := ErrNoAvailableEndpoints
	for _, ep := range endpoints {
		if !ep.IsAvailable(c.now()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := c.post(ctx, ep, body)
		latency := time.Since(start).Milliseconds()
		if err != nil {
			ep.metrics.RecordFailure()
			c.checkCircuitBreaker(ep)
			logger.Warn("webhook delivery failed", "endpoint", ep.name, "event_id", d.EventID, "error", err)
			lastErr = err
			continue
		}
		ep.metrics.RecordSuccess(latency)

		var receipt Receipt
		if err := json.Unmarshal(resp, &receipt); err != nil {
			return nil, fmt.Errorf("decode receipt from %s: %w", ep.name, err)
		}
		receipt.Endpoint = ep.name
		logger.Debug("webhook delivered", "endpoint", ep.name, "event_id", d.EventID, "latency_ms", latency)
		return &receipt, nil
	}
	return nil, fmt.Errorf("deliver event %s: %w", d.EventID, lastErr)
}

func (c *Client) post(ctx context.Context, ep *Endpoint, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(ep.url + DeliveryPath)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}
	if err := ep.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	switch code := resp.StatusCode(); {
	case code == fasthttp.StatusOK || code == fasthttp.StatusAccepted:
	case code >= 400 && code < 500:
		return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, code, resp.Body())
	default:
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", code, resp.Body())
	}

	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

func (c *Client) checkCircuitBreaker(ep *Endpoint) {
	fails := ep.metrics.ConsecutiveFails.Load()
	if fails < int32(c.config.CircuitBreakerThreshold) {
		return
	}
	ep.state.Store(int32(StateCircuitOpen))
	ep.circuitOpenUntil.Store(c.now().Add(c.config.CircuitBreakerTimeout).UnixNano())
	logger.Warn("webhook circuit opened", "endpoint", ep.name, "consecutive_fails", fails, "timeout", c.config.CircuitBreakerTimeout)
}

type EndpointStats struct {
	Name             string  `json:"name"`
	URL              string  `json:"url"`
	State            string  `json:"state"`
	TotalRequests    int64   `json:"total_requests"`
	FailedReqs       int64   `json:"failed_requests"`
	SuccessRate      float64 `json:"success_rate"`
	AvgLatencyMs     int64   `json:"avg_latency_ms"`
	ConsecutiveFails int32   `json:"consecutive_fails"`
}

func (c *Client) Stats() []EndpointStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make([]EndpointStats, 0, len(c.endpoints))
	for _, ep := range c.endpoints {
		stats = append(stats, EndpointStats{
			Name:             ep.name,
			URL:              ep.url,
			State:            ep.State().String(),
			TotalRequests:    ep.metrics.TotalRequests.Load(),
			FailedReqs:       ep.metrics.FailedReqs.Load(),
			SuccessRate:      ep.metrics.SuccessRate(),
			AvgLatencyMs:     ep.metrics.AvgLatencyMs(),
			ConsecutiveFails: ep.metrics.ConsecutiveFails.Load(),
		})
	}
	return stats
}
