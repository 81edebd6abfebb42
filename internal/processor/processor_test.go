package processor

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gateway "github.com/nimasrn/classroom-points/internal/gateways"
	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/nimasrn/classroom-points/internal/queue"
	"github.com/nimasrn/classroom-points/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)

	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	return mr, adapter
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Deliver(ctx context.Context, d *gateway.Delivery) (*gateway.Receipt, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Receipt), args.Error(1)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, nr *model.NotificationReport) (*model.NotificationReport, error) {
	args := m.Called(ctx, nr)
	return nr, args.Error(0)
}

func eventMessage(t *testing.T, event model.PurchaseEvent) *queue.Message {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return &queue.Message{ID: "1-0", Data: data, Attempts: 1}
}

func approvedEvent() model.PurchaseEvent {
	balance := int64(40)
	return model.NewPurchaseEvent(model.EventPurchaseApproved, &model.Purchase{
		ID: 7, StudentID: 3, ProductID: 2, Price: 60, Status: model.PurchaseStatusApproved,
	}, &balance)
}

func TestIdempotency_LockLifecycle(t *testing.T) {
	_, adapter := setupTestRedis(t)
	svc := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	ctx := context.Background()

	pc, err := svc.AcquireProcessingLock(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, pc.IsRetry())

	_, err = svc.AcquireProcessingLock(ctx, "evt-1")
	assert.ErrorIs(t, err, ErrLockAcquireFailed)

	require.NoError(t, svc.MarkSuccess(ctx, pc))

	processed, err := svc.IsProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, processed)

	_, err = svc.AcquireProcessingLock(ctx, "evt-1")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestIdempotency_RetriesAreBounded(t *testing.T) {
	_, adapter := setupTestRedis(t)
	cfg := DefaultIdempotencyConfig()
	cfg.MaxRetries = 2
	svc := NewIdempotencyService(adapter, cfg)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		pc, err := svc.AcquireProcessingLock(ctx, "evt-2")
		require.NoError(t, err)
		assert.Equal(t, i, pc.RetryCount)
		require.NoError(t, svc.MarkFailure(ctx, pc, errors.New("endpoint down")))
		assert.Equal(t, i+1, pc.RetryCount)
	}

	n, err := svc.GetRetryCount(ctx, "evt-2")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = svc.AcquireProcessingLock(ctx, "evt-2")
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
}

func TestIdempotency_LockExpires(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	cfg := DefaultIdempotencyConfig()
	cfg.LockTTL = time.Second
	svc := NewIdempotencyService(adapter, cfg)
	ctx := context.Background()

	_, err := svc.AcquireProcessingLock(ctx, "evt-3")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = svc.AcquireProcessingLock(ctx, "evt-3")
	assert.NoError(t, err)
}

func TestPurchaseEventProcessor_Delivers(t *testing.T) {
	_, adapter := setupTestRedis(t)
	idem := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	notifier := new(MockNotifier)
	reports := new(MockReportRepository)
	p := NewPurchaseEventProcessor(notifier, reports, idem)

	event := approvedEvent()
	notifier.On("Deliver", mock.Anything, mock.MatchedBy(func(d *gateway.Delivery) bool {
		return d.EventID == event.EventID && d.Type == string(model.EventPurchaseApproved)
	})).Return(&gateway.Receipt{EventID: event.EventID, Status: "accepted", Endpoint: "primary", ReceivedAt: time.Now().UTC()}, nil).Once()
	reports.On("Create", mock.Anything, mock.MatchedBy(func(nr *model.NotificationReport) bool {
		return nr.Status == model.NotificationDelivered && nr.PurchaseID == 7 && nr.Endpoint == "primary" && nr.DeliveredAt != nil
	})).Return(nil).Once()

	require.NoError(t, p.Process(context.Background(), eventMessage(t, event)))

	// a redelivered message is skipped
	require.NoError(t, p.Process(context.Background(), eventMessage(t, event)))

	notifier.AssertExpectations(t)
	reports.AssertExpectations(t)
}

func TestPurchaseEventProcessor_FailureThenGiveUp(t *testing.T) {
	_, adapter := setupTestRedis(t)
	cfg := DefaultIdempotencyConfig()
	cfg.MaxRetries = 2
	idem := NewIdempotencyService(adapter, cfg)
	notifier := new(MockNotifier)
	reports := new(MockReportRepository)
	p := NewPurchaseEventProcessor(notifier, reports, idem)

	event := approvedEvent()
	notifier.On("Deliver", mock.Anything, mock.Anything).Return(nil, gateway.ErrNoAvailableEndpoints).Times(2)
	reports.On("Create", mock.Anything, mock.MatchedBy(func(nr *model.NotificationReport) bool {
		return nr.Status == model.NotificationFailed && nr.EventID == event.EventID
	})).Return(nil).Once()

	msg := eventMessage(t, event)
	assert.ErrorIs(t, p.Process(context.Background(), msg), gateway.ErrNoAvailableEndpoints)
	assert.ErrorIs(t, p.Process(context.Background(), msg), gateway.ErrNoAvailableEndpoints)
	assert.NoError(t, p.Process(context.Background(), msg))

	notifier.AssertExpectations(t)
	reports.AssertExpectations(t)
}

func TestPurchaseEventProcessor_InvalidEvent(t *testing.T) {
	_, adapter := setupTestRedis(t)
	p := NewPurchaseEventProcessor(new(MockNotifier), new(MockReportRepository), NewIdempotencyService(adapter, DefaultIdempotencyConfig()))

	err := p.Process(context.Background(), &queue.Message{ID: "1-0", Data: []byte("{not json")})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	err = p.Process(context.Background(), &queue.Message{ID: "2-0", Data: []byte(`{"type":"purchase.approved"}`)})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

type countingProcessor struct {
	count atomic.Int64
	fail  bool
}

func (c *countingProcessor) Process(ctx context.Context, msg *queue.Message) error {
	c.count.Add(1)
	if c.fail {
		return errors.New("boom")
	}
	return nil
}

func (c *countingProcessor) GetType() string { return "counting" }

func testServiceConfig() Config {
	return Config{
		Queue: queue.QueueConfig{
			Name:              "purchase_events",
			ConsumerGroup:     "notifiers",
			ConsumerName:      "processor",
			MaxRetries:        3,
			VisibilityTimeout: 5 * time.Second,
			PollInterval:      20 * time.Millisecond,
			BatchSize:         10,
		},
		Consumers: 2,
		Workers:   2,
	}
}

func TestProcessorService_ConsumesStream(t *testing.T) {
	_, adapter := setupTestRedis(t)
	cfg := testServiceConfig()

	publisher, err := queue.NewQueue(adapter, cfg.Queue)
	require.NoError(t, err)

	svc := NewProcessorService(adapter, cfg)
	proc := &countingProcessor{}
	svc.RegisterProcessor(proc)
	require.NoError(t, svc.Start())

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := publisher.PublishJSON(ctx, approvedEvent(), nil)
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		return svc.Metrics().GetStats().TotalProcessed == 5
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, int64(5), proc.count.Load())

	svc.Stop()
}

func TestProcessorService_RecordsFailures(t *testing.T) {
	_, adapter := setupTestRedis(t)
	cfg := testServiceConfig()
	cfg.Consumers = 1

	publisher, err := queue.NewQueue(adapter, cfg.Queue)
	require.NoError(t, err)

	svc := NewProcessorService(adapter, cfg)
	svc.RegisterProcessor(&countingProcessor{fail: true})
	require.NoError(t, svc.Start())

	_, err = publisher.PublishJSON(context.Background(), approvedEvent(), nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return svc.Metrics().GetStats().TotalFailed >= 1
	}, 3*time.Second, 20*time.Millisecond)
	assert.Zero(t, svc.Metrics().GetStats().TotalProcessed)

	svc.Stop()
}

func TestProcessorService_RequiresProcessor(t *testing.T) {
	_, adapter := setupTestRedis(t)
	svc := NewProcessorService(adapter, testServiceConfig())
	assert.Error(t, svc.Start())
}

func TestServiceMetrics(t *testing.T) {
	m := NewServiceMetrics()
	m.RecordSuccess(10 * time.Millisecond)
	m.RecordSuccess(30 * time.Millisecond)
	m.RecordFailure()

	s := m.GetStats()
	assert.Equal(t, int64(2), s.TotalProcessed)
	assert.Equal(t, int64(1), s.TotalFailed)
	assert.Equal(t, 20*time.Millisecond, s.AvgDuration)

	m.Reset()
	assert.Zero(t, m.GetStats().TotalProcessed)
}
