// Package probe implements the periodic backend connectivity check. The
// prober sends a fixed probe question over the chat transport at a fixed
// interval and reports connectivity transitions through a callback. It
// reschedules itself after each attempt and stops when its context is done.
package probe

import (
	"context"
	"strings"
	"sync"
	"time"

	"policylens/internal/logger"
	"policylens/pkg/policytypes"
)

// DefaultInterval is the pause between connectivity checks.
const DefaultInterval = 10 * time.Second

// probeQuestion is the fixed query sent to the agent; any non-error reply
// counts as connected.
const probeQuestion = "检查连接状态"

// Prober periodically checks backend connectivity over the chat transport.
type Prober struct {
	transport policytypes.Transport
	interval  time.Duration
	onChange  func(connected bool)

	mu        sync.Mutex
	connected bool
	checked   bool
}

// New creates a prober reporting transitions to onChange. The callback
// fires on the first check and on every change after that, never on a
// repeat of the same state.
func New(transport policytypes.Transport, onChange func(connected bool)) *Prober {
	return &Prober{
		transport: transport,
		interval:  DefaultInterval,
		onChange:  onChange,
	}
}

// WithInterval overrides the check interval.
func (p *Prober) WithInterval(d time.Duration) *Prober {
	p.interval = d
	return p
}

// Run checks immediately, then once per interval until ctx is done.
// Blocks; callers run it in a goroutine.
func (p *Prober) Run(ctx context.Context) {
	p.check(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.check(ctx)
		}
	}
}

// Connected reports the last observed state. False before the first check.
func (p *Prober) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *Prober) check(ctx context.Context) {
	reply, err := p.transport.SubmitChatQuery(ctx, probeQuestion)
	connected := err == nil && !strings.Contains(reply, "Error")

	p.mu.Lock()
	changed := !p.checked || connected != p.connected
	p.checked = true
	p.connected = connected
	p.mu.Unlock()

	if !changed {
		return
	}

	if connected {
		logger.Info("Backend reachable")
	} else {
		logger.Warn("Backend unreachable", "error", err)
	}
	if p.onChange != nil {
		p.onChange(connected)
	}
}
