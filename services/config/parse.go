package config

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/google/shlex"

	"spider-go/drivers/spider"
	"spider-go/x/logx"
	"spider-go/x/strconvx"
)

// Spider is the parsed board configuration.
type Spider struct {
	Board    spider.BoardConfig
	Speed    spider.Speed
	MaxPolls uint32
}

// Default is the factory configuration used for anything the file leaves
// unset or gets wrong.
func Default() Spider {
	return Spider{Board: spider.DefaultBoardConfig(), Speed: spider.SpeedSlow}
}

// DriverConfig maps the file settings onto a driver Config.
func (s Spider) DriverConfig() spider.Config {
	return spider.Config{Board: s.Board, Speed: s.Speed, MaxPolls: s.MaxPolls}
}

// Parse reads "Key = HEX" lines. Values are hexadecimal without a prefix;
// '#' starts a comment. Unknown keys, malformed lines and invalid values are
// skipped and the default stays in place.
func Parse(r io.Reader) (Spider, error) {
	log := logx.Logger(logx.ComponentConfig)
	cfg := Default()
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		key, val, ok := splitLine(sc.Text())
		if !ok {
			continue
		}
		if !cfg.set(key, val) {
			log.Warn("ignoring setting", "line", line, "key", key, "value", val)
		}
	}
	return cfg, sc.Err()
}

// Load parses the file at path. A missing file yields the defaults.
func Load(path string) (Spider, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		logx.Logger(logx.ComponentConfig).Info("no config file, using defaults", "path", path)
		return Default(), nil
	}
	if err != nil {
		return Default(), err
	}
	defer f.Close()
	return Parse(f)
}

// splitLine accepts both "Key=Value" and "Key = Value". The key is a single
// word and the value ends at the first blank.
func splitLine(s string) (key, val string, ok bool) {
	toks, err := shlex.Split(s)
	if err != nil || len(toks) == 0 {
		return "", "", false
	}
	key, rest, found := strings.Cut(toks[0], "=")
	toks = toks[1:]
	if !found {
		if len(toks) == 0 || !strings.HasPrefix(toks[0], "=") {
			return "", "", false
		}
		rest = strings.TrimPrefix(toks[0], "=")
		toks = toks[1:]
	}
	if rest == "" && len(toks) > 0 {
		rest = toks[0]
	}
	return key, rest, key != "" && rest != ""
}

func (s *Spider) set(key, val string) bool {
	switch key {
	case "ClockportAddress":
		v, err := strconvx.ParseUint(val, 16, 32)
		if err != nil || v == 0 {
			return false
		}
		s.Board.Address = uint32(v)
	case "Interrupt":
		v, err := strconvx.ParseUint(val, 16, 8)
		if err != nil || !spider.Line(v).Valid() {
			return false
		}
		s.Board.Interrupt = spider.Line(v)
	case "Speed":
		v, err := strconvx.ParseUint(val, 16, 8)
		if err != nil || v == 0 {
			return false
		}
		s.Speed = spider.Speed(v)
	case "MaxPolls":
		v, err := strconvx.ParseUint(val, 16, 32)
		if err != nil {
			return false
		}
		s.MaxPolls = uint32(v)
	default:
		return false
	}
	return true
}
