package timex

import (
	"context"
	"time"

	"spider-go/errcode"
)

// Timer is a single-request deadline timer. At most one deadline is
// outstanding; arming a new one cancels the previous request.
type Timer struct {
	clock Clock
	t     *time.Timer
	armed bool
}

// OpenTimer returns a Timer sampling c. It fails with
// errcode.TimerUnavailable when no clock is available.
func OpenTimer(c Clock) (*Timer, error) {
	if c == nil {
		return nil, errcode.Wrap(errcode.TimerUnavailable, "timex.open", nil)
	}
	t := time.NewTimer(time.Hour)
	t.Stop()
	return &Timer{clock: c, t: t}, nil
}

// Now samples the timer's clock.
func (t *Timer) Now() time.Duration { return t.clock.Now() }

// Set arms a relative deadline, aborting any outstanding one.
func (t *Timer) Set(d time.Duration) {
	if t.t == nil {
		return
	}
	t.t.Reset(d)
	t.armed = true
}

// Armed reports whether a deadline is outstanding.
func (t *Timer) Armed() bool { return t.armed }

// Wait blocks until the armed deadline expires, sig is raised or ctx is
// done. It reports true when sig woke it; the outstanding deadline is then
// cancelled. A nil sig waits for the deadline alone.
func (t *Timer) Wait(ctx context.Context, sig <-chan struct{}) (bool, error) {
	if t.t == nil {
		return false, errcode.Wrap(errcode.TimerUnavailable, "timex.wait", nil)
	}
	select {
	case <-t.t.C:
		t.armed = false
		return false, nil
	case <-sig:
		t.t.Stop()
		t.armed = false
		return true, nil
	case <-ctx.Done():
		t.t.Stop()
		t.armed = false
		return false, ctx.Err()
	}
}

// WaitTO arms d and waits as Wait does.
func (t *Timer) WaitTO(ctx context.Context, d time.Duration, sig <-chan struct{}) (bool, error) {
	t.Set(d)
	return t.Wait(ctx, sig)
}

// Close releases the timer. Further waits fail with TimerUnavailable.
func (t *Timer) Close() {
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
	t.armed = false
}
