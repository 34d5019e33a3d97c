package executor

import (
	"context"
	"testing"

	"github.com/xmute-dev/xmute/pkg/convert"
)

func TestWithRetry_RetriesRetryableErrors(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), RetryPolicy{MaxAttempts: 3}, func() error {
		attempts++
		if attempts < 3 {
			return convert.NewTransient("flaky", nil)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), RetryPolicy{MaxAttempts: 5}, func() error {
		attempts++
		return convert.NewInvalidInput("bad input", nil)
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for a non-retryable error, got %d", attempts)
	}
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), RetryPolicy{MaxAttempts: 2}, func() error {
		attempts++
		return convert.NewTransient("always flaky", nil)
	})
	if err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if attempts != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", attempts)
	}
}

func TestNoRetry_NeverRetries(t *testing.T) {
	attempts := 0
	_ = withRetry(context.Background(), NoRetry, func() error {
		attempts++
		return convert.NewTransient("flaky", nil)
	})
	if attempts != 1 {
		t.Errorf("expected NoRetry to attempt exactly once, got %d", attempts)
	}
}
