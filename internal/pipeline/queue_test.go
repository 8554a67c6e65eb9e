package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/memohai/converse/internal/metrics"
)

type recordingProcessor struct {
	mu      sync.Mutex
	events  []Event
	started chan struct{}
	release chan struct{}
	done    chan struct{}
	err     error
}

func (p *recordingProcessor) Process(ctx context.Context, ev Event) error {
	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	if p.done != nil {
		p.done <- struct{}{}
	}
	return p.err
}

func TestQueueProcessesEvents(t *testing.T) {
	proc := &recordingProcessor{done: make(chan struct{}, 3), err: errors.New("logged only")}
	q := NewQueue(slog.Default(), proc, 2, 8, time.Second, nil)
	q.Start(context.Background())
	defer q.Stop()

	for _, uid := range []string{"U1", "U2", "U3"} {
		if err := q.Enqueue(Event{Kind: KindMessage, TeamID: "T1", UserID: uid}); err != nil {
			t.Fatalf("enqueue %s: %v", uid, err)
		}
	}
	for range 3 {
		select {
		case <-proc.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(proc.events))
	}
}

func TestQueueFullIsReported(t *testing.T) {
	proc := &recordingProcessor{release: make(chan struct{})}
	q := NewQueue(slog.Default(), proc, 1, 1, time.Second, nil)

	// Workers not started: one slot, the second event is rejected.
	if err := q.Enqueue(Event{UserID: "U1"}); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := q.Enqueue(Event{UserID: "U2"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	close(proc.release)
}

func TestQueueStopRejectsEnqueue(t *testing.T) {
	q := NewQueue(slog.Default(), &recordingProcessor{}, 1, 4, 0, nil)
	q.Start(context.Background())
	q.Stop()
	if err := q.Enqueue(Event{UserID: "U1"}); !errors.Is(err, ErrQueueStopped) {
		t.Fatalf("expected ErrQueueStopped, got %v", err)
	}
}

func TestQueueAppliesPerEventTimeout(t *testing.T) {
	proc := &recordingProcessor{release: make(chan struct{}), done: make(chan struct{}, 1)}
	q := NewQueue(slog.Default(), proc, 1, 1, 20*time.Millisecond, nil)
	q.Start(context.Background())
	defer q.Stop()

	if err := q.Enqueue(Event{UserID: "U1"}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-proc.done:
		t.Fatal("processor should have been cancelled before recording")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestQueueStopReportsDroppedEvents(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))
	m := metrics.New()
	proc := &recordingProcessor{started: make(chan struct{}, 1), release: make(chan struct{})}
	q := NewQueue(log, proc, 1, 2, time.Minute, m)
	q.Start(context.Background())

	if err := q.Enqueue(Event{Kind: KindMessage, UserID: "U1"}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-proc.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first event")
	}
	for _, uid := range []string{"U2", "U3"} {
		if err := q.Enqueue(Event{Kind: KindMessage, UserID: uid}); err != nil {
			t.Fatalf("enqueue %s: %v", uid, err)
		}
	}

	stopped := make(chan struct{})
	go func() {
		q.Stop()
		close(stopped)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for !errors.Is(q.Enqueue(Event{Kind: KindMessage, UserID: "U4"}), ErrQueueStopped) {
		if time.Now().After(deadline) {
			t.Fatal("queue never reported stopped")
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(proc.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return")
	}

	proc.mu.Lock()
	processed := len(proc.events)
	proc.mu.Unlock()
	if processed != 1 {
		t.Fatalf("expected only the in-flight event to run, got %d", processed)
	}
	if got := testutil.ToFloat64(m.Events.WithLabelValues(string(KindMessage), metrics.OutcomeDropped)); got != 2 {
		t.Fatalf("expected 2 dropped events, got %v", got)
	}
	if !strings.Contains(logs.String(), "dropped=2") {
		t.Fatalf("expected drop count in logs, got %q", logs.String())
	}
}
