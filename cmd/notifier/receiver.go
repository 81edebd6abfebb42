package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type DeliveryRequest struct {
	EventID string          `json:"event_id" binding:"required"`
	Type    string          `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload"`
}

type ReceiptResponse struct {
	EventID    string    `json:"event_id"`
	Status     string    `json:"status"`
	ReceiptID  string    `json:"receipt_id"`
	ReceivedAt time.Time `json:"received_at"`
}

type receivedEvent struct {
	ReceiptResponse
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Deliveries int             `json:"deliveries"`
}

// Receiver stands in for the downstream system that consumes purchase
// webhooks. It fails a configurable share of deliveries.
type Receiver struct {
	mu         sync.Mutex
	acceptRate float64
	minDelay   time.Duration
	maxDelay   time.Duration
	receiverID string
	rng        *rand.Rand
	events     map[string]*receivedEvent
}

func NewReceiver(acceptRate float64, minDelay, maxDelay time.Duration) *Receiver {
	return &Receiver{
		acceptRate: acceptRate,
		minDelay:   minDelay,
		maxDelay:   maxDelay,
		receiverID: "MOCK_RECEIVER_" + uuid.New().String()[:8],
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		events:     make(map[string]*receivedEvent),
	}
}

func (r *Receiver) delay() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxDelay <= r.minDelay {
		return r.minDelay
	}
	return r.minDelay + time.Duration(r.rng.Int63n(int64(r.maxDelay-r.minDelay)))
}

func (r *Receiver) shouldAccept() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() < r.acceptRate
}

// record stores the event once; a redelivery keeps the first receipt.
func (r *Receiver) record(req *DeliveryRequest) ReceiptResponse {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev, ok := r.events[req.EventID]; ok {
		ev.Deliveries++
		return ev.ReceiptResponse
	}
	ev := &receivedEvent{
		ReceiptResponse: ReceiptResponse{
			EventID:    req.EventID,
			Status:     "accepted",
			ReceiptID:  uuid.NewString(),
			ReceivedAt: time.Now().UTC(),
		},
		Type:       req.Type,
		Payload:    req.Payload,
		Deliveries: 1,
	}
	r.events[req.EventID] = ev
	return ev.ReceiptResponse
}

func (r *Receiver) lookup(eventID string) (receivedEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[eventID]
	if !ok {
		return receivedEvent{}, false
	}
	return *ev, true
}

type Handler struct {
	receiver *Receiver
}

func NewHandler(receiver *Receiver) *Handler {
	return &Handler{receiver: receiver}
}

func (h *Handler) ReceiveDelivery(c *gin.Context) {
	var req DeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": err.Error(),
		})
		return
	}

	time.Sleep(h.receiver.delay())

	if !h.receiver.shouldAccept() {
		log.Warn().Str("event_id", req.EventID).Str("type", req.Type).Msg("simulated delivery failure")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "receiver temporarily unavailable"})
		return
	}

	receipt := h.receiver.record(&req)
	log.Info().
		Str("event_id", req.EventID).
		Str("type", req.Type).
		Str("receipt_id", receipt.ReceiptID).
		Msg("purchase event received")
	c.JSON(http.StatusOK, receipt)
}

func (h *Handler) GetDelivery(c *gin.Context) {
	ev, ok := h.receiver.lookup(c.Param("event_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	h.receiver.mu.Lock()
	rate := h.receiver.acceptRate
	received := len(h.receiver.events)
	h.receiver.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"receiver_id": h.receiver.receiverID,
		"accept_rate": rate,
		"received":    received,
		"timestamp":   time.Now().UTC(),
	})
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var body struct {
		AcceptRate *float64 `json:"accept_rate"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	if body.AcceptRate == nil || *body.AcceptRate < 0 || *body.AcceptRate > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accept_rate must be between 0 and 1"})
		return
	}

	h.receiver.mu.Lock()
	h.receiver.acceptRate = *body.AcceptRate
	h.receiver.mu.Unlock()
	log.Info().Float64("rate", *body.AcceptRate).Msg("updated accept rate")

	c.JSON(http.StatusOK, gin.H{"accept_rate": *body.AcceptRate})
}

func SetupRouter(handler *Handler, mode string) *gin.Engine {
	gin.SetMode(mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request processed")
	})

	router.POST("/webhooks/purchases", handler.ReceiveDelivery)
	router.GET("/webhooks/purchases/:event_id", handler.GetDelivery)
	router.PUT("/config", handler.UpdateConfig)
	router.GET("/health", handler.HealthCheck)

	return router
}
