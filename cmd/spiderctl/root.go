//go:build linux && !tinygo

package main

import (
	"github.com/spf13/cobra"

	"spider-go/drivers/spider"
	"spider-go/errcode"
	"spider-go/services/config"
	"spider-go/x/logx"
	"spider-go/x/strconvx"
	"spider-go/x/timex"
)

var (
	rootOpts = struct {
		config   string
		base     string
		logLevel string
		dev      string
		maxPolls uint32
		noTOD    bool
	}{}

	rootCmd = &cobra.Command{
		Use:          "spiderctl",
		Short:        "Talk to a SPIder clockport SPI board",
		Long:         "Probe, read, write and watch a SPIder board mapped through a physical memory device.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, ok := logx.ParseLevel(rootOpts.logLevel)
			if !ok {
				return &errcode.E{C: errcode.InvalidParams, Op: "log-level", Msg: rootOpts.logLevel}
			}
			logx.SetLevel(lvl)
			return nil
		},
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootOpts.config, "config", "c", config.DefaultPath, "board configuration file")
	pf.StringVarP(&rootOpts.base, "base", "b", "", "clockport address in hex, overrides the config file")
	pf.StringVarP(&rootOpts.logLevel, "log-level", "l", "warn", "log level (debug, info, warn, error, none)")
	pf.StringVar(&rootOpts.dev, "dev", spider.DevMemPath, "physical memory device")
	pf.Uint32Var(&rootOpts.maxPolls, "max-polls", 0, "give up after this many empty FIFO polls (0 waits forever)")
	pf.BoolVar(&rootOpts.noTOD, "no-tod", false, "skip the CIA time-of-day hold on deselect")

	rootCmd.AddCommand(probeCmd, readCmd, writeCmd, watchCmd, calibrateCmd)
}

// baseOverride parses --base; zero means not set.
func baseOverride() (uint32, error) {
	if rootOpts.base == "" {
		return 0, nil
	}
	v, err := strconvx.ParseUint(rootOpts.base, 16, 32)
	if err != nil || v == 0 {
		return 0, &errcode.E{C: errcode.InvalidParams, Op: "base", Msg: rootOpts.base, Err: err}
	}
	return uint32(v), nil
}

func loadConfig() (config.Spider, error) {
	cfg, err := config.Load(rootOpts.config)
	if err != nil {
		return cfg, err
	}
	addr, err := baseOverride()
	if err != nil {
		return cfg, err
	}
	if addr != 0 {
		cfg.Board.Address = addr
	}
	if rootOpts.maxPolls != 0 {
		cfg.MaxPolls = rootOpts.maxPolls
	}
	return cfg, nil
}

// session is an open memory device and a configured board.
type session struct {
	addr uint32
	mem  *spider.DevMem
	dev  *spider.Device
}

func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	mem, err := spider.OpenDevMem(rootOpts.dev)
	if err != nil {
		return nil, err
	}
	timex.Init(&timex.Calibrator{Clock: timex.SystemClock()})

	dc := cfg.DriverConfig()
	dc.Logger = logx.Logger(logx.ComponentCLI)
	if !rootOpts.noTOD {
		dc.Ticks = spider.CIATickCounter(mem)
	}
	dev := spider.New(mem, dc)
	if _, err := dev.Configure(); err != nil {
		mem.Close()
		return nil, err
	}
	return &session{addr: cfg.Board.Address, mem: mem, dev: dev}, nil
}

func (s *session) Close() error {
	s.dev.Shutdown()
	err := s.mem.Err()
	if cerr := s.mem.Close(); err == nil {
		err = cerr
	}
	return err
}
