package scraper

import "time"

// State is a step of a single ScrapeJob call.
type State int

const (
	StateIdle State = iota
	StateAttempting
	StateBackoff
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttempting:
		return "attempting"
	case StateBackoff:
		return "backoff"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// RetryPolicy decides how many attempts a scrape gets and how long to wait
// between them. It holds no timers; the manager does the waiting.
type RetryPolicy struct {
	// MaxRetries is the number of attempts allowed after the first one.
	MaxRetries int

	// BaseDelay is scaled by 2^k before retry k.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff. Zero means no cap.
	MaxDelay time.Duration
}

// Attempts is the total number of attempts the policy allows.
func (p RetryPolicy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Backoff returns the delay before retry k, where k is the 0-indexed number
// of the attempt about to start. The first attempt (k = 0) never waits;
// with a 1s base, retries 1, 2, 3 wait 2s, 4s, 8s.
func (p RetryPolicy) Backoff(k int) time.Duration {
	if k <= 0 || p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 0; i < k; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
		// Overflow guard for absurd attempt counts.
		if d <= 0 {
			if p.MaxDelay > 0 {
				return p.MaxDelay
			}
			return time.Duration(1<<63 - 1)
		}
	}
	return d
}

// Next is the transition function of a scrape. attempt is the 0-indexed
// attempt the state refers to and err the outcome of that attempt when
// state is StateAttempting. It returns the next state and, when that state
// is StateBackoff, the delay to wait before the next attempt.
//
//	Idle       → Attempting
//	Attempting → Succeeded              (err == nil)
//	Attempting → Backoff(Backoff(k+1))  (err != nil, attempts left)
//	Attempting → Failed                 (err != nil, none left)
//	Backoff    → Attempting             (caller increments attempt)
func (p RetryPolicy) Next(state State, attempt int, err error) (State, time.Duration) {
	switch state {
	case StateIdle, StateBackoff:
		return StateAttempting, 0
	case StateAttempting:
		if err == nil {
			return StateSucceeded, 0
		}
		if attempt+1 < p.Attempts() {
			return StateBackoff, p.Backoff(attempt + 1)
		}
		return StateFailed, 0
	default:
		return state, 0
	}
}
