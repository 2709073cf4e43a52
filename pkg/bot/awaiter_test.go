package bot

import (
	"context"
	"errors"
	"testing"
	"time"
)

type awaitResult struct {
	msg Message
	err error
}

func startAwait(a *Awaiter, pred Predicate, timeout time.Duration) <-chan awaitResult {
	resCh := make(chan awaitResult, 1)
	go func() {
		msg, err := a.Await(context.Background(), pred, timeout)
		resCh <- awaitResult{msg, err}
	}()
	return resCh
}

// deliverEventually retries until a pending wait consumes the message, so
// tests never race the Await registration.
func deliverEventually(t *testing.T, a *Awaiter, msg Message) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if a.Deliver(msg) {
			return
		}
		select {
		case <-deadline:
			t.Fatal("no pending wait consumed the message")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestAwaiter_DeliversMatchingMessage(t *testing.T) {
	a := NewAwaiter()
	resCh := startAwait(a, func(m Message) bool { return m.AuthorID == "u1" }, time.Second)

	deliverEventually(t, a, Message{AuthorID: "u1", Content: "hello"})

	res := <-resCh
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if res.msg.Content != "hello" {
		t.Errorf("content: got %q, want %q", res.msg.Content, "hello")
	}
}

func TestAwaiter_IgnoresNonMatchingMessages(t *testing.T) {
	a := NewAwaiter()
	resCh := startAwait(a, func(m Message) bool { return m.AuthorID == "u1" }, 50*time.Millisecond)

	if a.Deliver(Message{AuthorID: "someone-else"}) {
		t.Error("non-matching message should not be consumed")
	}

	res := <-resCh
	if !errors.Is(res.err, ErrAwaitTimeout) {
		t.Fatalf("expected ErrAwaitTimeout, got %v", res.err)
	}
}

func TestAwaiter_Timeout(t *testing.T) {
	a := NewAwaiter()
	_, err := a.Await(context.Background(), func(Message) bool { return true }, 20*time.Millisecond)
	if !errors.Is(err, ErrAwaitTimeout) {
		t.Fatalf("expected ErrAwaitTimeout, got %v", err)
	}
}

func TestAwaiter_CloseReleasesWaiters(t *testing.T) {
	a := NewAwaiter()
	resCh := startAwait(a, func(Message) bool { return true }, 10*time.Second)

	time.Sleep(10 * time.Millisecond)
	a.Close()

	res := <-resCh
	if !errors.Is(res.err, ErrAwaiterClosed) {
		t.Fatalf("expected ErrAwaiterClosed, got %v", res.err)
	}

	_, err := a.Await(context.Background(), func(Message) bool { return true }, time.Second)
	if !errors.Is(err, ErrAwaiterClosed) {
		t.Fatalf("expected ErrAwaiterClosed after close, got %v", err)
	}
}

func TestAwaiter_ContextCancel(t *testing.T) {
	a := NewAwaiter()
	ctx, cancel := context.WithCancel(context.Background())

	resCh := make(chan awaitResult, 1)
	go func() {
		msg, err := a.Await(ctx, func(Message) bool { return true }, 10*time.Second)
		resCh <- awaitResult{msg, err}
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	res := <-resCh
	if !errors.Is(res.err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", res.err)
	}
}
