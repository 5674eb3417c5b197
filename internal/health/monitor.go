// Package health reports dependency reachability through the gRPC health
// checking protocol.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/blogauth-server/internal/logger"
)

// Checker probes one dependency.
type Checker interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Checker.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// StatusSetter receives serving status updates. *health.Server from
// google.golang.org/grpc/health implements it.
type StatusSetter interface {
	SetServingStatus(service string, status healthpb.HealthCheckResponse_ServingStatus)
}

// Monitor periodically pings registered dependencies. Each dependency is
// reported under its own service name; the empty name is SERVING only when
// every dependency answers.
type Monitor struct {
	status   StatusSetter
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	checks map[string]Checker
}

// NewMonitor creates a Monitor. Each probe is bounded by timeout.
func NewMonitor(status StatusSetter, interval, timeout time.Duration, logger *logger.Logger) *Monitor {
	return &Monitor{
		status:   status,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		checks:   make(map[string]Checker),
	}
}

// Add registers a dependency under name.
func (m *Monitor) Add(name string, c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = c
}

// Check probes every dependency once, publishes the results and reports
// whether all of them are healthy.
func (m *Monitor) Check(ctx context.Context) bool {
	m.mu.Lock()
	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	checks := make(map[string]Checker, len(m.checks))
	for k, v := range m.checks {
		checks[k] = v
	}
	m.mu.Unlock()
	sort.Strings(names)

	healthy := true
	for _, name := range names {
		pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := checks[name].Ping(pingCtx)
		cancel()

		if err != nil {
			healthy = false
			m.logger.Warn("Health monitor: dependency unavailable",
				"dependency", name,
				"error", err.Error())
			m.status.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
			continue
		}
		m.status.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}

	if healthy {
		m.status.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	} else {
		m.status.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return healthy
}

// Run checks immediately and then on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
