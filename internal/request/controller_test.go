package request

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policylens/pkg/policytypes"
)

// fakeTransport blocks until released, then returns the configured reply.
// It observes ctx the way the real transport does.
type fakeTransport struct {
	release  chan struct{}
	response string
	err      error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{release: make(chan struct{})}
}

func (f *fakeTransport) SubmitChatQuery(ctx context.Context, _ string) (string, error) {
	select {
	case <-f.release:
		return f.response, f.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func waitResult(t *testing.T, done <-chan Result) Result {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no terminal event delivered")
		return Result{}
	}
}

func TestController_Succeeded(t *testing.T) {
	transport := newFakeTransport()
	transport.response = "回答内容"
	c := NewController(transport, time.Minute)

	done, err := c.Start("问题")
	require.NoError(t, err)
	assert.True(t, c.Pending())

	close(transport.release)
	result := waitResult(t, done)

	assert.Equal(t, policytypes.OutcomeSucceeded, result.Outcome)
	assert.Equal(t, "回答内容", result.Response)
	assert.NoError(t, result.Err)
	assert.False(t, c.Pending())
}

func TestController_SecondStartRejected(t *testing.T) {
	transport := newFakeTransport()
	c := NewController(transport, time.Minute)

	done, err := c.Start("第一条")
	require.NoError(t, err)

	_, err = c.Start("第二条")
	assert.ErrorIs(t, err, ErrAlreadyPending)

	close(transport.release)
	waitResult(t, done)

	// Idle again: a new request is accepted.
	transport2 := newFakeTransport()
	c2 := NewController(transport2, time.Minute)
	_, err = c2.Start("第三条")
	assert.NoError(t, err)
}

func TestController_Cancelled(t *testing.T) {
	transport := newFakeTransport()
	c := NewController(transport, time.Minute)

	done, err := c.Start("问题")
	require.NoError(t, err)

	c.Cancel()
	result := waitResult(t, done)

	assert.Equal(t, policytypes.OutcomeCancelled, result.Outcome)
	assert.NoError(t, result.Err)
	assert.False(t, c.Pending())
	assert.Equal(t, policytypes.OutcomeCancelled, c.LastOutcome())
}

func TestController_TimedOut(t *testing.T) {
	transport := newFakeTransport()
	c := NewController(transport, 20*time.Millisecond)

	done, err := c.Start("问题")
	require.NoError(t, err)

	result := waitResult(t, done)

	assert.Equal(t, policytypes.OutcomeTimedOut, result.Outcome)
	assert.False(t, c.Pending())
}

func TestController_Failed(t *testing.T) {
	transport := newFakeTransport()
	transport.err = errors.New("connection refused")
	c := NewController(transport, time.Minute)

	done, err := c.Start("问题")
	require.NoError(t, err)

	close(transport.release)
	result := waitResult(t, done)

	assert.Equal(t, policytypes.OutcomeFailed, result.Outcome)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "connection refused")
}

func TestController_CancelWhileIdleIsNoOp(t *testing.T) {
	c := NewController(newFakeTransport(), time.Minute)

	c.Cancel()

	assert.False(t, c.Pending())
	assert.Equal(t, policytypes.OutcomePending, c.LastOutcome())
}

func TestController_ExactlyOneTerminalEvent(t *testing.T) {
	transport := newFakeTransport()
	c := NewController(transport, time.Minute)

	done, err := c.Start("问题")
	require.NoError(t, err)

	// Cancel twice; still a single terminal event.
	c.Cancel()
	c.Cancel()

	result := waitResult(t, done)
	assert.Equal(t, policytypes.OutcomeCancelled, result.Outcome)

	select {
	case extra := <-done:
		t.Fatalf("unexpected second terminal event: %v", extra.Outcome)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestController_IndependentControllersDoNotInteract(t *testing.T) {
	chatTransport := newFakeTransport()
	docTransport := newFakeTransport()
	chat := NewController(chatTransport, time.Minute)
	docs := NewController(docTransport, time.Minute)

	chatDone, err := chat.Start("聊天请求")
	require.NoError(t, err)

	// The docs surface is unaffected by the pending chat request.
	docTransport.response = "文档内容"
	docsDone, err := docs.Start("文档请求")
	require.NoError(t, err)

	close(docTransport.release)
	assert.Equal(t, policytypes.OutcomeSucceeded, waitResult(t, docsDone).Outcome)
	assert.True(t, chat.Pending())

	chat.Cancel()
	assert.Equal(t, policytypes.OutcomeCancelled, waitResult(t, chatDone).Outcome)
}
