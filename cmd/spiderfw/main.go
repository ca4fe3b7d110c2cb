//go:build rp2040 || rp2350

// Firmware that runs a memory-mapped SPIder board as a bus service and
// prints its pin events on the console.
package main

import (
	"context"
	"runtime"
	"time"

	"spider-go/bus"
	"spider-go/drivers/spider"
	"spider-go/services/config"
	spidersvc "spider-go/services/spider"
	"spider-go/x/logx"
	"spider-go/x/timex"
)

func main() {
	time.Sleep(3 * time.Second)
	ctx := context.Background()

	if w, err := logx.SerialSink(115200); err == nil {
		logx.SetOutput(w)
	}

	cal, err := timex.Init(&timex.Calibrator{Clock: timex.SystemClock()})
	if err != nil {
		println("[main] calibration:", err.Error())
	}
	println("[main] iterations per 400ns:", cal.ItersPer400ns)

	println("[main] bootstrapping bus …")
	b := bus.NewBus(4)
	cfgConn := b.NewConnection("config")
	svcConn := b.NewConnection("spider")
	uiConn := b.NewConnection("ui")

	info := uiConn.Subscribe(spidersvc.TopicInfo)
	irq := uiConn.Subscribe(spidersvc.TopicIRQ)

	var mem spider.Direct
	poller := spider.NewPoller(mem, spider.DefaultAddress, 0)
	go poller.Run(ctx)

	config.NewConfigService("").Start(ctx, cfgConn)
	spidersvc.New(mem, poller, nil).Start(ctx, svcConn)

	tick := time.NewTicker(5 * time.Second)
	defer tick.Stop()
	for {
		select {
		case m := <-info.Channel():
			if i, ok := m.Payload.(spidersvc.Info); ok {
				if i.Err != nil {
					println("[main] board:", i.Err.Error())
				} else {
					println("[main] SPIder", i.Version.String(), "on", i.Line.String())
				}
			}
		case m := <-irq.Channel():
			if ev, ok := m.Payload.(spidersvc.PinEvent); ok {
				println("[irq] fired:", uint8(ev.Fired), "cd:", ev.CD, "int:", ev.INT)
			}
		case <-tick.C:
			rctx, cancel := context.WithTimeout(ctx, time.Second)
			reply, err := uiConn.RequestWait(rctx, uiConn.NewMessage(spidersvc.TopicDiag, nil, false))
			cancel()
			if err != nil {
				println("[main] diag:", err.Error())
			} else if d, ok := reply.Payload.(spider.Diag); ok {
				println("[diag] fired:", uint8(d.Fired), "cd:", d.CD, "int:", d.INT)
			}
			printMem()
		}
	}
}

// printMem prints a compact snapshot of TinyGo runtime memory stats.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	println(
		"[mem]",
		"alloc:", uint32(ms.Alloc),
		"heapInuse:", uint32(ms.HeapInuse),
		"mallocs:", uint32(ms.Mallocs),
		"frees:", uint32(ms.Frees),
	)
}
