// Package request manages the cancellable, timeout-bounded lifecycle of one
// logical chat request. A Controller serializes requests for a single UI
// surface: at most one may be in flight, and exactly one terminal outcome is
// reported per start. Independent surfaces use independent controllers.
package request

import (
	"context"
	"errors"
	"sync"
	"time"

	"policylens/internal/logger"
	"policylens/pkg/policytypes"
)

// ErrAlreadyPending is returned by Start while a request is outstanding.
// Callers surface it by disabling the triggering control, not by rendering
// an error.
var ErrAlreadyPending = errors.New("a request is already pending")

// DefaultTimeout bounds one chat round-trip.
const DefaultTimeout = 60 * time.Second

// Result is the single terminal event of one request lifecycle.
type Result struct {
	Outcome  policytypes.RequestOutcome
	Response string // set when Outcome is OutcomeSucceeded
	Err      error  // underlying transport error when Outcome is OutcomeFailed
}

// Controller gates the Idle/Pending state machine around a Transport call.
type Controller struct {
	mu        sync.Mutex
	transport policytypes.Transport
	timeout   time.Duration

	pending   bool
	cancelled bool // user requested cancellation of the current request
	cancel    context.CancelFunc
	last      policytypes.RequestOutcome
}

// NewController creates a controller over the given transport. A
// non-positive timeout falls back to DefaultTimeout.
func NewController(transport policytypes.Transport, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Controller{transport: transport, timeout: timeout}
}

// Start issues the chat query and arms the timeout. It fails with
// ErrAlreadyPending when a request is outstanding; otherwise it returns a
// channel that delivers exactly one terminal Result, after which the
// controller is Idle again.
func (c *Controller) Start(message string) (<-chan Result, error) {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return nil, ErrAlreadyPending
	}

	userCtx, userCancel := context.WithCancel(context.Background())
	callCtx, timeoutCancel := context.WithTimeout(userCtx, c.timeout)

	c.pending = true
	c.cancelled = false
	c.cancel = userCancel
	c.last = policytypes.OutcomePending
	c.mu.Unlock()

	logger.RequestTransition("idle", "pending")
	done := make(chan Result, 1)

	go func() {
		defer timeoutCancel()
		defer userCancel()

		response, err := c.transport.SubmitChatQuery(callCtx, message)
		result := c.classify(callCtx, response, err)

		c.mu.Lock()
		c.pending = false
		c.cancel = nil
		c.last = result.Outcome
		c.mu.Unlock()

		logger.RequestTransition("pending", result.Outcome.String(), "error", result.Err)
		done <- result
	}()

	return done, nil
}

// classify maps the transport's return to the terminal outcome. The call
// context records which signal fired first: a deadline on it is a timeout
// even when the user pressed cancel a moment later, and a cancellation on it
// is the user's, regardless of how the transport wrapped the error.
func (c *Controller) classify(callCtx context.Context, response string, err error) Result {
	if err == nil {
		return Result{Outcome: policytypes.OutcomeSucceeded, Response: response}
	}

	c.mu.Lock()
	cancelled := c.cancelled
	c.mu.Unlock()

	switch {
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return Result{Outcome: policytypes.OutcomeTimedOut}
	case cancelled, errors.Is(err, context.Canceled):
		return Result{Outcome: policytypes.OutcomeCancelled}
	case errors.Is(err, context.DeadlineExceeded):
		return Result{Outcome: policytypes.OutcomeTimedOut}
	default:
		return Result{Outcome: policytypes.OutcomeFailed, Err: err}
	}
}

// Cancel signals cancellation of the outstanding request. The caller
// observes this as the Cancelled terminal event, not as an error. Calling
// Cancel while Idle is a no-op.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.pending || c.cancel == nil {
		return
	}
	c.cancelled = true
	c.cancel()
}

// Pending reports whether a request is outstanding.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// LastOutcome returns the outcome of the most recently finished request, or
// OutcomePending while one is in flight (and before the first request).
func (c *Controller) LastOutcome() policytypes.RequestOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
