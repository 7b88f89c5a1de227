package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegistryReady(t *testing.T) {
	r := NewRegistry(time.Second)
	r.Register("postgres", CheckerFunc(func(context.Context) error { return nil }))
	r.Register("redis", CheckerFunc(func(context.Context) error { return errors.New("connection refused") }))

	ready, status := r.Ready(context.Background())
	if ready {
		t.Fatal("expected not ready with a failing checker")
	}
	if status["postgres"] != "ok" {
		t.Errorf("expected postgres ok, got %q", status["postgres"])
	}
	if status["redis"] != "connection refused" {
		t.Errorf("expected redis error, got %q", status["redis"])
	}

	r.Unregister("redis")
	ready, _ = r.Ready(context.Background())
	if !ready {
		t.Error("expected ready after removing the failing checker")
	}

	if names := r.List(); len(names) != 1 || names[0] != "postgres" {
		t.Errorf("expected [postgres], got %v", names)
	}
}

func TestRegistryCheckTimeout(t *testing.T) {
	r := NewRegistry(10 * time.Millisecond)
	r.Register("slow", CheckerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	results := r.CheckAll(context.Background())
	if !errors.Is(results["slow"], context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", results["slow"])
	}
}
