package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedProbe struct {
	results []error
	calls   int
}

func (p *scriptedProbe) probe(_ context.Context) error {
	if p.calls >= len(p.results) {
		p.calls++
		return nil
	}
	err := p.results[p.calls]
	p.calls++
	return err
}

func TestMonitorStartsUnhealthy(t *testing.T) {
	m := NewMonitor(func(context.Context) error { return nil }, time.Minute, nil)
	if m.Healthy() {
		t.Error("expected unhealthy before any probe")
	}
}

func TestMonitorCheckNow(t *testing.T) {
	down := errors.New("connection refused")
	p := &scriptedProbe{results: []error{down, nil}}
	m := NewMonitor(p.probe, time.Minute, nil)

	if m.CheckNow(context.Background()) {
		t.Error("first probe fails, expected unhealthy")
	}
	if !m.CheckNow(context.Background()) || !m.Healthy() {
		t.Error("second probe succeeds, expected healthy")
	}
}

func TestMonitorFiresOnRecovery(t *testing.T) {
	down := errors.New("connection refused")
	p := &scriptedProbe{results: []error{nil, down, down, nil, nil}}
	m := NewMonitor(p.probe, time.Minute, nil)

	fired := 0
	m.OnHealthy(func() { fired++ })

	for i := 0; i < 5; i++ {
		m.CheckNow(context.Background())
	}

	// Once for the first healthy observation, once for the recovery.
	// The repeated healthy result at the end must not re-fire.
	if fired != 2 {
		t.Errorf("expected 2 healthy transitions, got %d", fired)
	}
}

func TestMonitorRunStopsOnCancel(t *testing.T) {
	p := &scriptedProbe{}
	m := NewMonitor(p.probe, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for !m.Healthy() {
		select {
		case <-deadline:
			t.Fatal("monitor never became healthy")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	cancel()
	select {
	case <-done:
	case <-deadline:
		t.Fatal("Run did not stop after cancel")
	}
}
