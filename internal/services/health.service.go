package services

import (
	"context"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (h HealthStatus) Healthy() bool {
	return h.Status == "ok"
}

type HealthService struct {
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealthService(timeout time.Duration) *HealthService {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthService{checks: make(map[string]Pinger), timeout: timeout}
}

// Register adds a dependency checked by Check. Nil pingers are ignored.
func (s *HealthService) Register(name string, p Pinger) *HealthService {
	if p != nil {
		s.checks[name] = p
	}
	return s
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	status := HealthStatus{Status: "ok", Checks: make(map[string]string, len(s.checks))}
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Checks[name] = err.Error()
			continue
		}
		status.Checks[name] = "ok"
	}
	return status
}
