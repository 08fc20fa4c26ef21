package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "libsqlsync/pkg/errors"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0, // No jitter for predictable testing
	}

	tests := []struct {
		attempt      int
		expectedMin  time.Duration
		expectedMax  time.Duration
		description  string
	}{
		{1, 100 * time.Millisecond, 100 * time.Millisecond, "First attempt"},
		{2, 200 * time.Millisecond, 200 * time.Millisecond, "Second attempt"},
		{3, 400 * time.Millisecond, 400 * time.Millisecond, "Third attempt"},
		{4, 800 * time.Millisecond, 800 * time.Millisecond, "Fourth attempt"},
		{5, 1 * time.Second, 1 * time.Second, "Fifth attempt (capped at max)"},
		{6, 1 * time.Second, 1 * time.Second, "Sixth attempt (still capped)"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			delay := backoff.NextDelay(test.attempt)
			if delay < test.expectedMin || delay > test.expectedMax {
				t.Errorf("Expected delay between %v and %v, got %v",
					test.expectedMin, test.expectedMax, delay)
			}
		})
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	// Test that jitter adds randomness
	delays := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		delay := backoff.NextDelay(2)
		delays[delay] = true
	}

	// With jitter, we should get different delays
	if len(delays) < 2 {
		t.Error("Expected multiple different delays with jitter, but got consistent delays")
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if err != nil {
		t.Errorf("Expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errors.New("persistent error")
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if err == nil {
		t.Error("Expected error when max attempts exceeded")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	persistErr := errs.CheckpointPersistError("/data/app.db-info", "rename", errors.New("read-only file system"))

	op := func() error {
		attempts++
		return persistErr
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if err != persistErr {
		t.Errorf("Expected persist error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt (no retry for persist error), got %d", attempts)
	}
}

func TestRetryWithRetryableTypedError(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errs.New(errs.ErrorTypeNetwork, "pull", errors.New("connection refused"))
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	if err := Do(op, cfg); err != nil {
		t.Errorf("Expected success after network retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestForBudget(t *testing.T) {
	tests := []struct {
		budget   int
		attempts int
	}{
		{0, 1},
		{1, 2},
		{5, 6},
		{-3, 1},
	}

	for _, test := range tests {
		cfg := ForBudget(context.Background(), test.budget, nil)
		cfg.Backoff = &ConstantBackoff{}
		cfg.Logger = nil

		attempts := 0
		err := Do(func() error {
			attempts++
			return errors.New("primary unavailable")
		}, cfg)

		if err == nil {
			t.Errorf("budget %d: expected error", test.budget)
		}
		if attempts != test.attempts {
			t.Errorf("budget %d: expected %d attempts, got %d", test.budget, test.attempts, attempts)
		}
	}
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	op := func() error {
		attempts++
		if attempts == 2 {
			cancel() // Cancel after second attempt
		}
		return errors.New("error")
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 100 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     ctx,
	}

	err := Do(op, cfg)
	if err == nil {
		t.Error("Expected error when context cancelled")
	}
	if attempts > 3 {
		t.Errorf("Expected at most 3 attempts before cancellation, got %d", attempts)
	}
}

func TestErrorTypeBackoff(t *testing.T) {
	etb := NewErrorTypeBackoff()

	if eb, ok := etb.ForError(errs.ErrorTypeNetwork).(*ExponentialBackoff); ok {
		if eb.BaseDelay != 1*time.Second {
			t.Errorf("Expected network base delay of 1s, got %v", eb.BaseDelay)
		}
	} else {
		t.Error("Expected ExponentialBackoff for network errors")
	}

	if eb, ok := etb.ForError(errs.ErrorTypeServerError).(*ExponentialBackoff); ok {
		if eb.BaseDelay != 5*time.Second {
			t.Errorf("Expected server error base delay of 5s, got %v", eb.BaseDelay)
		}
	} else {
		t.Error("Expected ExponentialBackoff for server errors")
	}

	if etb.ForError(errs.ErrorTypeUnknown) != etb.DefaultBackoff {
		t.Error("Expected default backoff for unknown errors")
	}
}

func TestByErrorType(t *testing.T) {
	etb := &ErrorTypeBackoff{
		NetworkErrorBackoff: &ConstantBackoff{Delay: 1 * time.Millisecond},
		ServerErrorBackoff:  &ConstantBackoff{Delay: 2 * time.Millisecond},
		DefaultBackoff:      &ConstantBackoff{Delay: 3 * time.Millisecond},
	}

	var delays []time.Duration
	cfg := ByErrorType(&Config{
		MaxAttempts: 4,
		Context:     context.Background(),
		OnRetry: func(attempt int, err error, delay time.Duration) {
			delays = append(delays, delay)
		},
	}, etb)

	failures := []error{
		errs.New(errs.ErrorTypeNetwork, "pull", errors.New("reset")),
		errs.New(errs.ErrorTypeServerError, "pull", errors.New("503")),
		errors.New("untyped"),
	}
	attempts := 0
	err := Do(func() error {
		attempts++
		if attempts <= len(failures) {
			return failures[attempts-1]
		}
		return nil
	}, cfg)

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	want := []time.Duration{1 * time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("Expected %d delays, got %v", len(want), delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("Retry %d: expected delay %v, got %v", i+1, want[i], delays[i])
		}
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	result, err := DoWithResult(op, cfg)
	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if result != "success" {
		t.Errorf("Expected 'success', got '%s'", result)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}