package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func testConfig() Config {
	return Config{
		Name:             "test-circuit",
		MaxRequests:      1,
		Interval:         10 * time.Second,
		Timeout:          100 * time.Millisecond,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

func TestDo_ReturnsTypedResult(t *testing.T) {
	cb := New(testConfig())

	got, err := Do(cb, func() (int, error) { return 42, nil })
	if err != nil {
		t.Fatalf("Do err=%v", err)
	}
	if got != 42 {
		t.Fatalf("Do=%d, want 42", got)
	}
}

func TestDo_PropagatesError(t *testing.T) {
	cb := New(testConfig())
	testErr := errors.New("smtp down")

	got, err := Do(cb, func() (string, error) { return "ignored", testErr })
	if !errors.Is(err, testErr) {
		t.Fatalf("expected test error, got %v", err)
	}
	if got != "" {
		t.Fatalf("expected zero value on error, got %q", got)
	}
}

func TestCircuitBreaker_TripsOpen(t *testing.T) {
	cb := New(testConfig())
	testErr := errors.New("feed unavailable")

	for i := 0; i < 3; i++ {
		_, _ = Do(cb, func() (struct{}, error) { return struct{}{}, testErr })
	}

	if cb.State() != gobreaker.StateOpen || !cb.IsOpen() {
		t.Fatalf("expected state=Open, got %v", cb.State())
	}

	_, err := Do(cb, func() (struct{}, error) {
		t.Error("function should not be called when circuit is open")
		return struct{}{}, nil
	})
	if !IsOpenError(err) {
		t.Fatalf("expected open-state error, got %v", err)
	}
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := New(testConfig())
	testErr := errors.New("feed unavailable")
	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, testErr })
	}
	if !cb.IsOpen() {
		t.Fatalf("circuit should be open, got %v", cb.State())
	}

	time.Sleep(150 * time.Millisecond)

	if _, err := cb.Execute(func() (interface{}, error) { return "ok", nil }); err != nil {
		t.Fatalf("expected success in half-open state, got %v", err)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Fatalf("expected state=Closed after successful probe, got %v", cb.State())
	}
}

func TestCircuitBreaker_MinRequests(t *testing.T) {
	cb := New(testConfig())
	testErr := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, testErr })
	}
	if cb.IsOpen() {
		t.Fatal("circuit must stay closed below MinRequests")
	}
}

func TestCircuitBreaker_IsSuccessfulErrorsDoNotTrip(t *testing.T) {
	rejected := errors.New("550 no such user")
	cfg := testConfig()
	cfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, rejected) }
	cb := New(cfg)

	for i := 0; i < 5; i++ {
		_, err := Do(cb, func() (struct{}, error) { return struct{}{}, rejected })
		if !errors.Is(err, rejected) {
			t.Fatalf("expected the call's own error, got %v", err)
		}
	}
	if cb.IsOpen() {
		t.Fatal("errors classified as successful must not open the circuit")
	}

	for i := 0; i < 3; i++ {
		_, _ = Do(cb, func() (struct{}, error) { return struct{}{}, errors.New("dial timeout") })
	}
	if cb.IsOpen() {
		t.Fatalf("3 of 8 failures is below the threshold, got %v", cb.State())
	}
}

func TestConfigs(t *testing.T) {
	tests := []struct {
		cfg  Config
		name string
	}{
		{DefaultConfig("custom"), "custom"},
		{FeedFetchConfig(), "feed-fetch"},
		{SMTPConfig(), "smtp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cfg.Name != tt.name {
				t.Errorf("Name=%q, want %q", tt.cfg.Name, tt.name)
			}
			if tt.cfg.MinRequests == 0 || tt.cfg.FailureThreshold <= 0 || tt.cfg.FailureThreshold > 1 {
				t.Errorf("invalid thresholds: %+v", tt.cfg)
			}
			if New(tt.cfg).Name() != tt.name {
				t.Errorf("breaker name mismatch")
			}
		})
	}
}
