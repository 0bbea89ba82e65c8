package scraper

import (
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, BaseDelay: time.Second}

	tests := []struct {
		k    int
		want time.Duration
	}{
		{-1, 0},
		{0, 0},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
	}

	for _, tt := range tests {
		if got := p.Backoff(tt.k); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.k, got, tt.want)
		}
	}
}

func TestRetryPolicy_BackoffCapped(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	if got := p.Backoff(2); got != 4*time.Second {
		t.Errorf("Backoff(2) = %v, want 4s", got)
	}
	if got := p.Backoff(3); got != 5*time.Second {
		t.Errorf("Backoff(3) = %v, want cap 5s", got)
	}
	if got := p.Backoff(200); got != 5*time.Second {
		t.Errorf("Backoff(200) = %v, want cap 5s", got)
	}
}

func TestRetryPolicy_BackoffUncappedOverflow(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second}
	if got := p.Backoff(100); got <= 0 {
		t.Errorf("Backoff(100) = %v, want positive", got)
	}
}

func TestRetryPolicy_Attempts(t *testing.T) {
	if got := (RetryPolicy{MaxRetries: 2}).Attempts(); got != 3 {
		t.Errorf("Attempts() = %d, want 3", got)
	}
	if got := (RetryPolicy{MaxRetries: -4}).Attempts(); got != 1 {
		t.Errorf("Attempts() with negative retries = %d, want 1", got)
	}
}

func TestRetryPolicy_Next(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2, BaseDelay: time.Second}
	boom := errors.New("boom")

	tests := []struct {
		name      string
		state     State
		attempt   int
		err       error
		wantState State
		wantDelay time.Duration
	}{
		{"idle starts", StateIdle, 0, nil, StateAttempting, 0},
		{"success", StateAttempting, 0, nil, StateSucceeded, 0},
		{"first failure backs off 2s", StateAttempting, 0, boom, StateBackoff, 2 * time.Second},
		{"second failure backs off 4s", StateAttempting, 1, boom, StateBackoff, 4 * time.Second},
		{"last failure", StateAttempting, 2, boom, StateFailed, 0},
		{"backoff resumes", StateBackoff, 1, nil, StateAttempting, 0},
		{"succeeded is terminal", StateSucceeded, 1, nil, StateSucceeded, 0},
		{"failed is terminal", StateFailed, 2, boom, StateFailed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, delay := p.Next(tt.state, tt.attempt, tt.err)
			if state != tt.wantState || delay != tt.wantDelay {
				t.Errorf("Next(%v, %d) = (%v, %v), want (%v, %v)",
					tt.state, tt.attempt, state, delay, tt.wantState, tt.wantDelay)
			}
		})
	}
}

func TestRetryPolicy_RunToCompletion(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2, BaseDelay: time.Second}
	boom := errors.New("boom")

	state, attempt := StateIdle, 0
	var delays []time.Duration
	attempts := 0
	for !state.Terminal() {
		var err error
		if state == StateAttempting {
			attempts++
			err = boom
		}
		next, d := p.Next(state, attempt, err)
		if next == StateBackoff {
			delays = append(delays, d)
		}
		if state == StateBackoff {
			attempt++
		}
		state = next
	}

	if state != StateFailed {
		t.Fatalf("final state = %v, want failed", state)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(delays) != 2 || delays[0] != 2*time.Second || delays[1] != 4*time.Second {
		t.Errorf("delays = %v, want [2s 4s]", delays)
	}
}
