package timex

import (
	"sync"
	"sync/atomic"
	"time"

	"spider-go/errcode"
)

const (
	// MinScale is the first iteration count tried by the calibration.
	MinScale uint32 = 0x8000
	// MaxScale bounds the doubling search (exclusive).
	MaxScale uint32 = 0x8000_0000

	// FallbackIters is used when no usable sample was found. It is large
	// enough to cover 400 ns on any machine this driver targets.
	FallbackIters uint32 = 0x8000
	// UnreliableIters is used when a minimal sample already took over a
	// second; a single iteration then costs far more than 400 ns.
	UnreliableIters uint32 = 1

	targetSample = 10 * time.Millisecond
	maxSample    = time.Second
)

// Clock samples a monotonic wall clock with at least microsecond resolution.
type Clock interface {
	Now() time.Duration
}

type systemClock struct{ start time.Time }

func (c systemClock) Now() time.Duration { return time.Since(c.start) }

// SystemClock returns a Clock backed by the runtime's monotonic time.
func SystemClock() Clock { return systemClock{start: time.Now()} }

// Critical brackets a section that must not be preempted.
type Critical interface {
	Enter()
	Exit()
}

// Calibration is the outcome of one calibration run.
type Calibration struct {
	ItersPer400ns uint32
	Scale         uint32        // iteration count of the last sample
	Sample        time.Duration // duration of the last sample
	Fallback      bool          // ItersPer400ns is a built-in constant
}

// Calibrator measures how many iterations of the fixed-cost loop fit in
// 400 ns. Zero fields take the package defaults.
type Calibrator struct {
	Clock    Clock
	Critical Critical
	MinScale uint32
	MaxScale uint32
	// Work runs n iterations of the benchmark loop. Defaults to Spin.
	Work func(n uint32)
}

// Calibrate doubles the iteration count from MinScale until one sample
// takes at least 10 ms, then derives the per-400ns iteration count from
// that sample, rounded up by one so the wait never undershoots.
func (c *Calibrator) Calibrate() (Calibration, error) {
	if c.Clock == nil {
		return Calibration{ItersPer400ns: FallbackIters, Fallback: true},
			errcode.Wrap(errcode.TimerUnavailable, "timex.calibrate", nil)
	}
	crit := c.Critical
	if crit == nil {
		crit = DefaultCritical
	}
	work := c.Work
	if work == nil {
		work = Spin
	}
	scale := c.MinScale
	if scale == 0 {
		scale = MinScale
	}
	limit := c.MaxScale
	if limit == 0 {
		limit = MaxScale
	}

	var sample time.Duration
	found := false
	for scale < limit {
		crit.Enter()
		t1 := c.Clock.Now()
		work(scale)
		t2 := c.Clock.Now()
		crit.Exit()

		sample = t2 - t1
		if sample >= maxSample {
			return Calibration{ItersPer400ns: UnreliableIters, Scale: scale, Sample: sample, Fallback: true},
				errcode.Wrap(errcode.CalibrationUnreliable, "timex.calibrate", nil)
		}
		if sample >= targetSample {
			found = true
			break
		}
		if scale > limit/2 {
			break
		}
		scale <<= 1
	}

	res := Calibration{Scale: scale, Sample: sample}
	micros := uint32(sample / time.Microsecond)
	thousands := scale / 1000
	if !found || micros == 0 || thousands == 0 || micros/thousands == 0 {
		res.ItersPer400ns = FallbackIters
		res.Fallback = true
		return res, nil
	}
	// micros per thousand iterations is nanoseconds per iteration.
	res.ItersPer400ns = 400/(micros/thousands) + 1
	return res, nil
}

var (
	itersPer400ns atomic.Uint32
	calOnce       sync.Once
	calResult     Calibration
	calErr        error

	sink atomic.Uint32
)

func init() { itersPer400ns.Store(FallbackIters) }

// Init runs the calibration once per process and publishes the result for
// Wait400ns. Later calls return the first outcome. Before Init, Wait400ns
// uses FallbackIters.
func Init(c *Calibrator) (Calibration, error) {
	calOnce.Do(func() {
		calResult, calErr = c.Calibrate()
		itersPer400ns.Store(calResult.ItersPer400ns)
	})
	return calResult, calErr
}

// ItersPer400ns returns the process-wide calibrated iteration count.
func ItersPer400ns() uint32 { return itersPer400ns.Load() }

// Spin runs n-1 iterations of the add/mul/sub/div benchmark loop.
func Spin(n uint32) {
	t := uint32(1)
	for x := uint32(1); x < n; x++ {
		t = ((t+x)*t - x) / x
	}
	sink.Store(t)
}

// WaitIters runs the benchmark loop iters times.
func WaitIters(iters uint32) {
	t := uint32(1)
	for ns := iters; ns > 0; ns-- {
		t = ((t+ns)*t - ns) / ns
	}
	sink.Store(t)
}

// Wait400ns busy-waits for roughly 400 ns using the calibrated count. It is
// meant for hold times where a timer round trip would dominate the delay.
func Wait400ns() { WaitIters(itersPer400ns.Load()) }
