//go:build linux && !tinygo

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"spider-go/bus"
	"spider-go/drivers/spider"
	"spider-go/errcode"
	"spider-go/services/config"
	spidersvc "spider-go/services/spider"
	"spider-go/x/logx"
	"spider-go/x/strconvx"
	"spider-go/x/timex"
)

var (
	probeCmd = &cobra.Command{
		Use:   "probe",
		Short: "Identify the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()
			d := s.dev
			fmt.Fprintf(cmd.OutOrStdout(), "SPIder %s at %06X, interrupt %s, %d Hz\n",
				d.Version(), s.addr, d.Line(), d.Speed().Hz())
			dg := d.Diag()
			fmt.Fprintf(cmd.OutOrStdout(), "CD=%d INT=%d fired=%#02x\n", dg.CD, dg.INT, uint8(dg.Fired))
			return nil
		},
	}

	readCmd = &cobra.Command{
		Use:   "read N",
		Short: "Clock N bytes in with slave select asserted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconvx.ParseUint(args[0], 10, 32)
			if err != nil {
				return &errcode.E{C: errcode.InvalidParams, Op: "read", Msg: args[0], Err: err}
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			buf := make([]byte, n)
			s.dev.Select()
			err = s.dev.Read(buf)
			s.dev.Deselect()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), hex.Dump(buf))
			return nil
		},
	}

	writeCmd = &cobra.Command{
		Use:   "write HEX",
		Short: "Clock bytes out with slave select asserted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := hex.DecodeString(strings.ReplaceAll(args[0], ":", ""))
			if err != nil {
				return &errcode.E{C: errcode.InvalidParams, Op: "write", Msg: args[0], Err: err}
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			s.dev.Select()
			err = s.dev.Write(buf)
			s.dev.Deselect()
			return err
		},
	}

	watchOpts = struct {
		interval time.Duration
	}{}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Report card-detect and interrupt pin edges until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}

	calibrateCmd = &cobra.Command{
		Use:   "calibrate",
		Short: "Measure the busy-wait loop used for the 400 ns deselect delay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := timex.Init(&timex.Calibrator{Clock: timex.SystemClock()})
			fmt.Fprintf(cmd.OutOrStdout(), "iterations per 400ns: %d (scale %d, sample %s, fallback %v)\n",
				c.ItersPer400ns, c.Scale, c.Sample, c.Fallback)
			return err
		},
	}
)

func init() {
	watchCmd.Flags().DurationVarP(&watchOpts.interval, "interval", "i", spider.DefaultPollInterval, "interrupt poll interval")
}

// runWatch runs the board service on the bus, as a device would, with a
// poller standing in for the host interrupt.
func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	addr, err := baseOverride()
	if err != nil {
		return err
	}
	mem, err := spider.OpenDevMem(rootOpts.dev)
	if err != nil {
		return err
	}
	defer mem.Close()
	timex.Init(&timex.Calibrator{Clock: timex.SystemClock()})

	cfgSvc := config.NewConfigService(rootOpts.config)
	cfgSvc.Address = addr
	pre, err := config.Load(rootOpts.config)
	if err != nil {
		return err
	}
	if addr == 0 {
		addr = pre.Board.Address
	}

	b := bus.NewBus(16)
	conn := b.NewConnection("spiderctl")
	info := conn.Subscribe(spidersvc.TopicInfo)
	irq := conn.Subscribe(spidersvc.TopicIRQ)
	defer conn.Disconnect()

	poller := spider.NewPoller(mem, addr, watchOpts.interval)
	var ticks *timex.TickCounter
	if !rootOpts.noTOD {
		ticks = spider.CIATickCounter(mem)
	}
	svc := spidersvc.New(mem, poller, ticks)

	cfgSvc.Start(ctx, conn)
	if err := svc.Start(ctx, conn); err != nil {
		return err
	}
	go poller.Run(ctx)

	log := logx.Logger(logx.ComponentCLI)
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			<-svc.Done()
			return mem.Err()
		case m := <-info.Channel():
			i, ok := m.Payload.(spidersvc.Info)
			if !ok {
				continue
			}
			if i.Err != nil {
				stop()
				<-svc.Done()
				return i.Err
			}
			log.Info("watching", "version", i.Version.String(), "interval", watchOpts.interval)
			fmt.Fprintf(out, "SPIder %s ready, watching pins\n", i.Version)
		case m := <-irq.Channel():
			ev, ok := m.Payload.(spidersvc.PinEvent)
			if !ok {
				continue
			}
			fmt.Fprintf(out, "%s fired=%#02x CD=%d INT=%d\n",
				time.Now().Format("15:04:05.000"), uint8(ev.Fired), ev.CD, ev.INT)
		}
	}
}
