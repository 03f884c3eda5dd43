package raceset

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRacePicksFastestSuccess(t *testing.T) {
	attempts := []Attempt[string]{
		{Label: "slow", Run: func(ctx context.Context) (string, error) {
			select {
			case <-time.After(50 * time.Millisecond):
				return "slow", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}},
		{Label: "fast", Run: func(ctx context.Context) (string, error) {
			return "fast", nil
		}},
	}
	got, err := Race(context.Background(), attempts)
	if err != nil {
		t.Fatal(err)
	}
	if got != "fast" {
		t.Fatalf("got %q, want %q", got, "fast")
	}
}

func TestRaceSkipsFailuresForSuccess(t *testing.T) {
	attempts := []Attempt[int]{
		{Label: "a", Run: func(ctx context.Context) (int, error) {
			return 0, errors.New("a failed")
		}},
		{Label: "b", Run: func(ctx context.Context) (int, error) {
			time.Sleep(10 * time.Millisecond)
			return 42, nil
		}},
	}
	got, err := Race(context.Background(), attempts)
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestRaceReturnsJoinedErrorWhenAllFail(t *testing.T) {
	attempts := []Attempt[int]{
		{Label: "a", Run: func(ctx context.Context) (int, error) { return 0, errors.New("a failed") }},
		{Label: "b", Run: func(ctx context.Context) (int, error) { return 0, errors.New("b failed") }},
	}
	_, err := Race(context.Background(), attempts)
	if err == nil {
		t.Fatal("expected an error when every attempt fails")
	}
}

func TestDelayedWaitsBeforeRunning(t *testing.T) {
	start := time.Now()
	a := Delayed("delayed", 30*time.Millisecond, func(ctx context.Context) (int, error) {
		return 7, nil
	})
	got, err := a.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Fatal("expected Delayed to wait before running")
	}
}

func TestRaceCtxCancelledBeforeAnySuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts := []Attempt[int]{
		{Label: "a", Run: func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		}},
	}
	_, err := Race(ctx, attempts)
	if err == nil {
		t.Fatal("expected an error")
	}
}
