package utils

import (
	"errors"
	"testing"
	"time"
)

func TestBackoffSucceedsAfterFailures(t *testing.T) {
	b := &Backoff{Attempts: 3, BaseDelay: time.Millisecond, Logger: NewLogger()}

	calls := 0
	err := b.Do("flaky-op", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestBackoffGivesUpAfterMaxAttempts(t *testing.T) {
	b := &Backoff{Attempts: 2, BaseDelay: time.Millisecond, Logger: NewLogger()}

	sentinel := errors.New("permanent")
	calls := 0
	err := b.Do("doomed-op", func() error {
		calls++
		return sentinel
	})

	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped sentinel error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}
