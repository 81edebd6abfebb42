package processor

import (
	"sync/atomic"
	"time"
)

type ServiceMetrics struct {
	totalProcessed  atomic.Int64
	totalFailed     atomic.Int64
	totalDurationNs atomic.Int64
	startedNs       atomic.Int64
}

type MetricsSnapshot struct {
	TotalProcessed int64
	TotalFailed    int64
	RatePerSecond  float64
	AvgDuration    time.Duration
	Uptime         time.Duration
}

func NewServiceMetrics() *ServiceMetrics {
	m := &ServiceMetrics{}
	m.startedNs.Store(time.Now().UnixNano())
	return m
}

func (m *ServiceMetrics) RecordSuccess(d time.Duration) {
	m.totalProcessed.Add(1)
	m.totalDurationNs.Add(int64(d))
}

func (m *ServiceMetrics) RecordFailure() {
	m.totalFailed.Add(1)
}

func (m *ServiceMetrics) GetStats() MetricsSnapshot {
	processed := m.totalProcessed.Load()
	uptime := time.Since(time.Unix(0, m.startedNs.Load()))

	s := MetricsSnapshot{
		TotalProcessed: processed,
		TotalFailed:    m.totalFailed.Load(),
		Uptime:         uptime,
	}
	if secs := uptime.Seconds(); secs > 0 {
		s.RatePerSecond = float64(processed) / secs
	}
	if processed > 0 {
		s.AvgDuration = time.Duration(m.totalDurationNs.Load() / processed)
	}
	return s
}

func (m *ServiceMetrics) Reset() {
	m.totalProcessed.Store(0)
	m.totalFailed.Store(0)
	m.totalDurationNs.Store(0)
	m.startedNs.Store(time.Now().UnixNano())
}
