// Package spider runs a SPIder board as a bus service. It owns the driver:
// every register access happens on the service goroutine except the
// interrupt handler's.
package spider

import (
	"context"

	"golang.org/x/exp/slog"

	"spider-go/bus"
	driver "spider-go/drivers/spider"
	"spider-go/errcode"
	"spider-go/services/config"
	"spider-go/x/logx"
	"spider-go/x/timex"
)

var (
	TopicInfo  = bus.T("spider", "info")
	TopicIRQ   = bus.T("spider", "irq")
	TopicDiag  = bus.T("spider", "diag")
	TopicRead  = bus.T("spider", "read")
	TopicWrite = bus.T("spider", "write")
)

// Info is published retained on TopicInfo after each (re)configuration.
type Info struct {
	Address uint32
	Line    driver.Line
	Speed   driver.Speed
	Version driver.Version
	Err     error
}

// PinEvent is published on TopicIRQ for every serviced interrupt.
type PinEvent struct {
	Fired driver.Pin
	CD    int
	INT   int
}

// Result answers read and write requests. Data is nil for writes.
type Result struct {
	Data []byte
	Err  error
}

type Service struct {
	mem   driver.Mem
	irq   driver.IntServer
	ticks *timex.TickCounter
	log   *slog.Logger

	sig  driver.Signal
	dev  *driver.Device
	done chan struct{}
}

// New returns a service for the board mapped through mem. irq and ticks may
// be nil; see driver.Config.
func New(mem driver.Mem, irq driver.IntServer, ticks *timex.TickCounter) *Service {
	return &Service{
		mem:   mem,
		irq:   irq,
		ticks: ticks,
		log:   logx.Logger(logx.ComponentService).With("service", "spider"),
		sig:   driver.NewSignal(),
		done:  make(chan struct{}),
	}
}

// Done is closed once the service has shut the board down.
func (s *Service) Done() <-chan struct{} { return s.done }

func (s *Service) configure(conn *bus.Connection, cfg config.Spider) {
	if s.dev != nil {
		s.dev.Shutdown()
	}
	dc := cfg.DriverConfig()
	dc.Signal = s.sig
	dc.IntServer = s.irq
	dc.Ticks = s.ticks
	s.dev = driver.New(s.mem, dc)

	v, err := s.dev.Configure()
	info := Info{
		Address: cfg.Board.Address,
		Line:    s.dev.Line(),
		Speed:   s.dev.Speed(),
		Version: v,
		Err:     err,
	}
	if err != nil {
		s.log.Error("board not available", "addr", cfg.Board.Address, "err", err)
	} else {
		s.log.Info("board ready", "version", v.String(), "line", info.Line.String())
	}
	conn.Publish(&bus.Message{Topic: TopicInfo, Payload: info, Retained: true})
}

func (s *Service) serviceIRQ(conn *bus.Connection) {
	if s.dev == nil || !s.dev.Probed() {
		return
	}
	ev := PinEvent{
		Fired: s.dev.ResetInterrupt(),
		CD:    s.dev.PinValue(driver.PinCD),
		INT:   s.dev.PinValue(driver.PinINT),
	}
	s.log.Debug("interrupt", "fired", uint8(ev.Fired), "cd", ev.CD, "int", ev.INT)
	conn.Publish(&bus.Message{Topic: TopicIRQ, Payload: ev})
}

func (s *Service) notReady(op string) error {
	return errcode.Wrap(errcode.NotProbed, op, nil)
}

func (s *Service) handleRead(conn *bus.Connection, msg *bus.Message) {
	var res Result
	n, ok := msg.Payload.(int)
	switch {
	case !ok || n < 0:
		res.Err = errcode.Wrap(errcode.InvalidParams, "spider.read", nil)
	case s.dev == nil:
		res.Err = s.notReady("spider.read")
	default:
		res.Data = make([]byte, n)
		if res.Err = s.dev.Read(res.Data); res.Err != nil {
			res.Data = nil
		}
	}
	conn.Reply(msg, res, false)
}

func (s *Service) handleWrite(conn *bus.Connection, msg *bus.Message) {
	var res Result
	p, ok := msg.Payload.([]byte)
	switch {
	case !ok:
		res.Err = errcode.Wrap(errcode.InvalidParams, "spider.write", nil)
	case s.dev == nil:
		res.Err = s.notReady("spider.write")
	default:
		res.Err = s.dev.Write(p)
	}
	conn.Reply(msg, res, false)
}

func (s *Service) handleDiag(conn *bus.Connection, msg *bus.Message) {
	if s.dev == nil || !s.dev.Probed() {
		conn.Reply(msg, s.notReady("spider.diag"), false)
		return
	}
	conn.Reply(msg, s.dev.Diag(), false)
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	defer close(s.done)

	cfgSub := conn.Subscribe(config.TopicSpider)
	readSub := conn.Subscribe(TopicRead)
	writeSub := conn.Subscribe(TopicWrite)
	diagSub := conn.Subscribe(TopicDiag)
	defer func() {
		conn.Unsubscribe(cfgSub)
		conn.Unsubscribe(readSub)
		conn.Unsubscribe(writeSub)
		conn.Unsubscribe(diagSub)
	}()

	for {
		select {
		case <-ctx.Done():
			if s.dev != nil {
				s.dev.Shutdown()
			}
			conn.Publish(&bus.Message{Topic: TopicInfo, Retained: true})
			s.log.Info("stopped")
			return
		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(config.Spider)
			if !ok {
				s.log.Warn("unexpected config payload")
				continue
			}
			s.configure(conn, cfg)
		case <-s.sig:
			s.serviceIRQ(conn)
		case msg := <-readSub.Channel():
			s.handleRead(conn, msg)
		case msg := <-writeSub.Channel():
			s.handleWrite(conn, msg)
		case msg := <-diagSub.Channel():
			s.handleDiag(conn, msg)
		}
	}
}

// Start waits for configuration on config/spider and runs the board until
// ctx is cancelled.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
