package logx

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"golang.org/x/exp/slog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{" INFO ", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseLevel(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Fatalf("ParseLevel(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestLoggerComponentAndLevel(t *testing.T) {
	orig := Level()
	defer SetLevel(orig)

	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetLevel(slog.LevelInfo)
	l := Logger(ComponentDriver)
	l.Debug("hidden")
	l.Info("probe ok", "major", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record leaked at info level: %s", out)
	}
	if !strings.Contains(out, "component=spider") || !strings.Contains(out, "probe ok") {
		t.Fatalf("unexpected output: %s", out)
	}

	none, _ := ParseLevel("none")
	SetLevel(none)
	buf.Reset()
	l.Error("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("none level still logged: %s", buf.String())
	}
}
