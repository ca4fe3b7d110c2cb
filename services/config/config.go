package config

import (
	"context"
	"strings"

	"spider-go/bus"
	"spider-go/x/logx"
)

const serviceName = "config"

// TopicSpider carries the retained Spider configuration.
var TopicSpider = bus.T("config", "spider")

// ConfigService publishes the board configuration for other services.
type ConfigService struct {
	Name string
	// Path is the config file; empty uses the built-in settings.
	Path string
	// Address, when non-zero, replaces the configured clockport address.
	Address uint32
}

func NewConfigService(path string) *ConfigService {
	return &ConfigService{Name: serviceName, Path: path}
}

func (s *ConfigService) load() (Spider, error) {
	var cfg Spider
	var err error
	if s.Path == "" {
		cfg, err = Parse(strings.NewReader(cfgEmbedded))
	} else {
		cfg, err = Load(s.Path)
	}
	if s.Address != 0 {
		cfg.Board.Address = s.Address
	}
	return cfg, err
}

// publishConfig publishes the parsed configuration as a retained message.
// A read error still publishes whatever was parsed before it.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	cfg, err := s.load()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	conn.Publish(&bus.Message{Topic: TopicSpider, Payload: cfg, Retained: true})
	return err
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			logx.Logger(logx.ComponentConfig).Warn("config publish", "path", s.Path, "err", err)
		}
	}()
}
