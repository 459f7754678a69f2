package transport

import (
	"context"
	"log/slog"
	"time"
)

type probeState int

const (
	stateProbing probeState = iota
	stateRetrying
	stateSuccess
	stateExhausted
)

func (s probeState) String() string {
	switch s {
	case stateProbing:
		return "probing"
	case stateRetrying:
		return "retrying"
	case stateSuccess:
		return "success"
	case stateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// attemptFunc performs one probe. done reports a usable answer; a non-nil
// error aborts the loop without further retries.
type attemptFunc func(ctx context.Context) (done bool, err error)

// prober runs attempts until one succeeds or its budget runs out. Exactly one
// of timeout or attempts should be set.
type prober struct {
	name     string
	interval time.Duration

	// timeout bounds the loop by elapsed time since the first attempt.
	timeout time.Duration
	// attempts bounds the loop by attempt count.
	attempts int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newProber(name string, interval, timeout time.Duration, attempts int) prober {
	return prober{
		name:     name,
		interval: interval,
		timeout:  timeout,
		attempts: attempts,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// run drives attempt through the state machine and returns the number of
// attempts made. It returns errBudgetExhausted when the budget runs out, the
// attempt's own error when one aborts, or ctx.Err() when cancelled.
func (p *prober) run(ctx context.Context, attempt attemptFunc) (int, error) {
	start := p.now()
	state := stateProbing
	n := 0

	for {
		switch state {
		case stateProbing:
			if err := ctx.Err(); err != nil {
				return n, err
			}
			n++
			done, err := attempt(ctx)
			switch {
			case err != nil:
				return n, err
			case done:
				state = stateSuccess
			case p.exhausted(start, n):
				state = stateExhausted
			default:
				state = stateRetrying
			}
			slog.Debug("transport: probe", "channel", p.name, "attempt", n, "state", state)

		case stateRetrying:
			if err := p.sleep(ctx, p.interval); err != nil {
				return n, err
			}
			state = stateProbing

		case stateSuccess:
			return n, nil

		case stateExhausted:
			return n, errBudgetExhausted
		}
	}
}

// exhausted reports whether another attempt is out of budget. The time budget
// trips only once elapsed time strictly exceeds the timeout.
func (p *prober) exhausted(start time.Time, n int) bool {
	if p.attempts > 0 && n >= p.attempts {
		return true
	}
	return p.timeout > 0 && p.now().Sub(start) > p.timeout
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
