package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-formstate/pkg/form"
)

// DefaultTimeout bounds every blocking helper so a broken test fails instead
// of hanging.
const DefaultTimeout = 2 * time.Second

// CancelledMessage is returned by a gated validator whose context ends before
// it is released.
const CancelledMessage = "validation cancelled"

// Gate is a value validator whose calls block until each one is released by
// the test, so completion order can be chosen independently of issue order.
type Gate struct {
	calls chan *Call
}

// Call is one pending invocation of a Gate validator.
type Call struct {
	Value   any
	release chan string
}

// NewGate creates a gate that buffers up to 64 pending calls.
func NewGate() *Gate {
	return &Gate{calls: make(chan *Call, 64)}
}

// Validator returns the form.ValueValidator backed by the gate.
func (g *Gate) Validator() form.ValueValidator {
	return func(ctx context.Context, value any) string {
		call := &Call{Value: value, release: make(chan string, 1)}
		g.calls <- call
		select {
		case msg := <-call.release:
			return msg
		case <-ctx.Done():
			return CancelledMessage
		}
	}
}

// Next waits for the next invocation.
func (g *Gate) Next(t testing.TB) *Call {
	t.Helper()
	select {
	case call := <-g.calls:
		return call
	case <-time.After(DefaultTimeout):
		t.Fatalf("testsupport: no validator call within %s", DefaultTimeout)
		return nil
	}
}

// Pending reports how many calls are queued and not yet taken by Next.
func (g *Gate) Pending() int {
	return len(g.calls)
}

// Pass releases the call with no error.
func (c *Call) Pass() {
	c.release <- ""
}

// Fail releases the call with msg.
func (c *Call) Fail(msg string) {
	c.release <- msg
}

// Await waits for s to settle.
func Await(t testing.TB, s *form.Settle) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("testsupport: settle: %v", err)
	}
}
