// Package health tracks whether the remote backend is reachable and lets
// other components react when it comes back.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Probe checks one backend. Nil error means healthy.
type Probe func(ctx context.Context) error

// Monitor polls a probe and fires callbacks on the unhealthy-to-healthy
// edge. That edge is what the assignment reconciler waits for.
type Monitor struct {
	probe    Probe
	interval time.Duration
	log      *zap.Logger

	mu        sync.Mutex
	healthy   bool
	observed  bool // first probe result not yet seen while false
	onHealthy []func()
}

func NewMonitor(probe Probe, interval time.Duration, log *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{probe: probe, interval: interval, log: log}
}

// OnHealthy registers a callback for every transition into the healthy
// state, including the first healthy observation after start.
func (m *Monitor) OnHealthy(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.onHealthy = append(m.onHealthy, fn)
	m.mu.Unlock()
}

// Healthy reports the last observed state. False until the first probe.
func (m *Monitor) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

// CheckNow runs one probe and applies the result.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	err := m.probe(ctx)
	return m.apply(err)
}

// Run polls until ctx is done. It probes once immediately so callers get
// a state without waiting a full interval.
func (m *Monitor) Run(ctx context.Context) {
	m.CheckNow(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}

func (m *Monitor) apply(err error) bool {
	healthy := err == nil

	m.mu.Lock()
	wasHealthy := m.healthy
	first := !m.observed
	m.observed = true
	m.healthy = healthy
	var fire []func()
	if healthy && (first || !wasHealthy) {
		fire = append(fire, m.onHealthy...)
	}
	m.mu.Unlock()

	if healthy && !first && !wasHealthy {
		m.log.Info("backend reachable again")
	}
	if !healthy && (first || wasHealthy) {
		m.log.Warn("backend unreachable", zap.Error(err))
	}

	for _, fn := range fire {
		fn()
	}
	return healthy
}
