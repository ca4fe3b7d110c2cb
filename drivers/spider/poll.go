package spider

import (
	"context"
	"sync"
	"time"

	"spider-go/x/mathx"
	"spider-go/x/timex"
)

// Poller sampling periods. Requested intervals are clamped to
// [MinPollInterval, MaxPollInterval].
const (
	DefaultPollInterval = 5 * time.Millisecond
	MinPollInterval     = 100 * time.Microsecond
	MaxPollInterval     = time.Second
)

// Poller is an IntServer for hosts that cannot route the board interrupt to
// the driver. It samples IntFired and runs the registered handlers when an
// armed edge is latched. One Poller serves one board; the line is ignored.
type Poller struct {
	port     *Port
	interval time.Duration

	mu       sync.Mutex
	handlers []*InterruptContext
}

// NewPoller samples the board at base through mem every interval.
func NewPoller(mem Mem, base uint32, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	interval = mathx.Clamp(interval, MinPollInterval, MaxPollInterval)
	return &Poller{port: NewPort(mem, base), interval: interval}
}

// Interval returns the sampling period.
func (p *Poller) Interval() time.Duration { return p.interval }

func (p *Poller) AddIntServer(_ Line, ic *InterruptContext) error {
	p.mu.Lock()
	p.handlers = append(p.handlers, ic)
	p.mu.Unlock()
	return nil
}

func (p *Poller) RemIntServer(_ Line, ic *InterruptContext) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, h := range p.handlers {
		if h == ic {
			p.handlers = append(p.handlers[:i], p.handlers[i+1:]...)
			return
		}
	}
}

// Poll dispatches once if an edge is latched and reports whether it did.
func (p *Poller) Poll() bool {
	if p.port.Read(RegIntFired) == 0 {
		return false
	}
	p.mu.Lock()
	hs := append([]*InterruptContext(nil), p.handlers...)
	p.mu.Unlock()
	if len(hs) == 0 {
		return false
	}
	for _, ic := range hs {
		ic.Handle()
	}
	return true
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	t, err := timex.OpenTimer(timex.SystemClock())
	if err != nil {
		return err
	}
	defer t.Close()
	for {
		if _, err := t.WaitTO(ctx, p.interval, nil); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		p.Poll()
	}
}
