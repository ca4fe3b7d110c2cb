package spider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"spider-go/bus"
	driver "spider-go/drivers/spider"
	"spider-go/drivers/spider/spidersim"
	"spider-go/errcode"
	"spider-go/services/config"
)

const base = 0xD80001

type harness struct {
	board  *spidersim.Board
	svc    *Service
	conn   *bus.Connection
	info   *bus.Subscription
	irq    *bus.Subscription
	cancel context.CancelFunc
}

func start(t *testing.T, addr uint32) *harness {
	t.Helper()
	b := bus.NewBus(16)
	conn := b.NewConnection("test")
	board := spidersim.New(base, driver.LineExter, driver.Version{Major: 1, Minor: 2, Patch: 0}, 5)

	cfg := config.Default()
	cfg.Board.Address = addr
	conn.Publish(&bus.Message{Topic: config.TopicSpider, Payload: cfg, Retained: true})

	h := &harness{
		board: board,
		svc:   New(board, board, nil),
		conn:  conn,
		info:  conn.Subscribe(TopicInfo),
		irq:   conn.Subscribe(TopicIRQ),
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	if err := h.svc.Start(ctx, conn); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		cancel()
		<-h.svc.Done()
	})
	return h
}

func recv(t *testing.T, sub *bus.Subscription) *bus.Message {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m
	case <-time.After(time.Second):
		t.Fatalf("timeout on %v", sub.Topic())
	}
	return nil
}

func (h *harness) request(t *testing.T, topic bus.Topic, payload any) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := h.conn.RequestWait(ctx, h.conn.NewMessage(topic, payload, false))
	if err != nil {
		t.Fatalf("request %v: %v", topic, err)
	}
	return reply.Payload
}

func TestServiceConfiguresAndPublishesInfo(t *testing.T) {
	h := start(t, base)

	info, ok := recv(t, h.info).Payload.(Info)
	if !ok {
		t.Fatal("info payload type")
	}
	want := Info{
		Address: base,
		Line:    driver.LineExter,
		Speed:   driver.SpeedSlow,
		Version: driver.Version{Major: 1, Minor: 2, Patch: 0},
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if h.board.Registered(driver.LineExter) != 1 {
		t.Fatal("handler not registered")
	}
}

func TestServicePublishesPinEvent(t *testing.T) {
	h := start(t, base)
	recv(t, h.info)

	h.board.SetPins(driver.PinCD)
	h.board.Edge(driver.PinCD)

	ev, ok := recv(t, h.irq).Payload.(PinEvent)
	if !ok {
		t.Fatal("irq payload type")
	}
	if ev != (PinEvent{Fired: driver.PinCD, CD: 1, INT: 0}) {
		t.Fatalf("event = %+v", ev)
	}
	if h.board.Reg(driver.RegIntFired) != 0 {
		t.Fatal("latch left set")
	}
}

func TestServiceReadWriteRequests(t *testing.T) {
	h := start(t, base)
	recv(t, h.info)

	res := h.request(t, TopicWrite, []byte{0x40, 0x00}).(Result)
	if res.Err != nil {
		t.Fatalf("write: %v", res.Err)
	}
	if diff := cmp.Diff([]byte{0x40, 0x00}, h.board.Sent()); diff != "" {
		t.Fatalf("sent mismatch (-want +got):\n%s", diff)
	}

	h.board.Respond([]byte{0x01, 0xAA})
	res = h.request(t, TopicRead, 3).(Result)
	if res.Err != nil {
		t.Fatalf("read: %v", res.Err)
	}
	if diff := cmp.Diff([]byte{0x01, 0xAA, 0xFF}, res.Data); diff != "" {
		t.Fatalf("read mismatch (-want +got):\n%s", diff)
	}

	res = h.request(t, TopicRead, "three").(Result)
	if !errors.Is(res.Err, errcode.InvalidParams) {
		t.Fatalf("bad read payload err = %v", res.Err)
	}

	if _, ok := h.request(t, TopicDiag, nil).(driver.Diag); !ok {
		t.Fatal("diag reply type")
	}
}

func TestServiceProbeFailure(t *testing.T) {
	h := start(t, base+0x10000)

	info := recv(t, h.info).Payload.(Info)
	if !errors.Is(info.Err, errcode.ProbeNotFound) {
		t.Fatalf("info.Err = %v", info.Err)
	}
	res := h.request(t, TopicRead, 1).(Result)
	if !errors.Is(res.Err, errcode.NotProbed) {
		t.Fatalf("read err = %v", res.Err)
	}
	if h.board.Registered(driver.LineExter) != 0 {
		t.Fatal("handler registered after failed probe")
	}
}

func TestServiceShutdownOnCancel(t *testing.T) {
	h := start(t, base)
	recv(t, h.info)

	h.cancel()
	<-h.svc.Done()

	if h.board.Registered(driver.LineExter) != 0 {
		t.Fatal("handler still registered")
	}
	if h.board.Reg(driver.RegIntArmed) != driver.ArmNone {
		t.Fatal("pins still armed")
	}
	if m := recv(t, h.info); m.Payload != nil {
		t.Fatalf("info not cleared: %+v", m.Payload)
	}
	if f := h.board.Faults(); len(f) != 0 {
		t.Fatalf("faults: %v", f)
	}
}
