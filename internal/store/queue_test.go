package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func TestQueueRepository_OpenIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Queues()

	q, err := repo.Open(ctx, "gesture_subscription", 100, 1000)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if q.MaxDepth != 100 || q.MaxMsgSize != 1000 {
		t.Errorf("limits = %d/%d, want 100/1000", q.MaxDepth, q.MaxMsgSize)
	}

	again, err := repo.Open(ctx, "gesture_subscription", 5, 5)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	if again.MaxDepth != 100 {
		t.Errorf("existing queue limits changed: depth %d", again.MaxDepth)
	}

	queues, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(queues) != 1 {
		t.Errorf("List() returned %d queues, want 1", len(queues))
	}
}

func TestQueueRepository_FIFO(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Queues()

	if _, err := repo.Open(ctx, "q", 10, 100); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		id, err := repo.Push(ctx, "q", []byte(fmt.Sprintf("m%d", i)))
		if err != nil {
			t.Fatalf("Push() failed: %v", err)
		}
		if id == "" {
			t.Error("Push() returned empty message id")
		}
	}

	if n, _ := repo.Len(ctx, "q"); n != 3 {
		t.Errorf("Len() = %d, want 3", n)
	}

	for i := 0; i < 3; i++ {
		msg, ok, err := repo.Pop(ctx, "q")
		if err != nil || !ok {
			t.Fatalf("Pop() = %v, %v", ok, err)
		}
		if want := fmt.Sprintf("m%d", i); string(msg.Body) != want {
			t.Errorf("Pop() body = %q, want %q", msg.Body, want)
		}
	}

	if _, ok, err := repo.Pop(ctx, "q"); ok || err != nil {
		t.Errorf("Pop() on empty queue = %v, %v", ok, err)
	}
}

func TestQueueRepository_Limits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Queues()

	if _, err := repo.Open(ctx, "small", 2, 4); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if _, err := repo.Push(ctx, "small", []byte("12345")); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("oversized Push() error = %v, want ErrMessageTooLarge", err)
	}
	if _, err := repo.Push(ctx, "small", []byte("1234")); err != nil {
		t.Fatalf("Push() at size limit failed: %v", err)
	}
	if _, err := repo.Push(ctx, "small", []byte("b")); err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if _, err := repo.Push(ctx, "small", []byte("c")); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Push() on full queue error = %v, want ErrQueueFull", err)
	}

	if _, err := repo.Push(ctx, "missing", []byte("x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Push() to missing queue error = %v, want ErrNotFound", err)
	}
}

func TestQueueRepository_QueuesAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Queues()

	for _, name := range []string{"1_detected_gestures", "2_detected_gestures"} {
		if _, err := repo.Open(ctx, name, 10, 100); err != nil {
			t.Fatalf("Open(%s) failed: %v", name, err)
		}
	}
	if _, err := repo.Push(ctx, "2_detected_gestures", []byte("wave")); err != nil {
		t.Fatalf("Push() failed: %v", err)
	}

	if _, ok, _ := repo.Pop(ctx, "1_detected_gestures"); ok {
		t.Error("message leaked into another queue")
	}
	if msg, ok, _ := repo.Pop(ctx, "2_detected_gestures"); !ok || string(msg.Body) != "wave" {
		t.Errorf("Pop() = %v, %v", msg, ok)
	}
}

func TestQueueRepository_Remove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Queues()

	if _, err := repo.Open(ctx, "q", 10, 100); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := repo.Push(ctx, "q", []byte("x")); err != nil {
		t.Fatalf("Push() failed: %v", err)
	}

	if err := repo.Remove(ctx, "q"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if _, err := repo.Get(ctx, "q"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Remove() error = %v, want ErrNotFound", err)
	}
	if n, _ := repo.Len(ctx, "q"); n != 0 {
		t.Errorf("messages survived queue removal: %d", n)
	}
	if err := repo.Remove(ctx, "q"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}
}

func TestQueueRepository_SharedAcrossConnections(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "shared.db")
	ctx := context.Background()

	producer, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to open producer store: %v", err)
	}
	defer producer.Close()
	consumer, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to open consumer store: %v", err)
	}
	defer consumer.Close()

	if _, err := producer.Queues().Open(ctx, "q", 100, 100); err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			if _, err := producer.Queues().Push(ctx, "q", []byte(fmt.Sprintf("%02d", i))); err != nil {
				t.Errorf("Push() failed: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	for i := 0; i < 20; i++ {
		msg, ok, err := consumer.Queues().Pop(ctx, "q")
		if err != nil || !ok {
			t.Fatalf("Pop() = %v, %v", ok, err)
		}
		if want := fmt.Sprintf("%02d", i); string(msg.Body) != want {
			t.Fatalf("Pop() body = %q, want %q", msg.Body, want)
		}
	}
}
