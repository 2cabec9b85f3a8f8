package tuningslog

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/evan-idocoding/livetune/rt/tuning"
)

func TestLevelerFollowsRegistry(t *testing.T) {
	reg := tuning.New()
	lv := New(reg, "log", "level", slog.LevelInfo)

	if got := lv.Level(); got != slog.LevelInfo {
		t.Fatalf("expected INFO, got %v", got)
	}
	if !tuning.Set(reg, "log", "level", int32(slog.LevelError)) {
		t.Fatalf("expected Set to succeed")
	}
	if got := lv.Level(); got != slog.LevelError {
		t.Fatalf("expected ERROR, got %v", got)
	}
}

func TestLevelerClamps(t *testing.T) {
	reg := tuning.New()
	lv := New(reg, "log", "level", slog.LevelInfo)

	lv.Set(slog.Level(100))
	if got := lv.Level(); got != slog.LevelError {
		t.Fatalf("expected ERROR, got %v", got)
	}
	lv.Set(slog.Level(-100))
	if got := lv.Level(); got != slog.LevelDebug {
		t.Fatalf("expected DEBUG, got %v", got)
	}
	lv.Reset()
	if got := lv.Level(); got != slog.LevelInfo {
		t.Fatalf("expected INFO after reset, got %v", got)
	}
}

func TestLevelerSetString(t *testing.T) {
	reg := tuning.New()
	lv := New(reg, "log", "level", slog.LevelInfo)

	cases := map[string]slog.Level{
		"ERROR":    slog.LevelError,
		" warning": slog.LevelWarn,
		"err":      slog.LevelError,
		"Debug":    slog.LevelDebug,
	}
	for in, want := range cases {
		if err := lv.SetString(in); err != nil {
			t.Fatalf("SetString(%q): %v", in, err)
		}
		if got := lv.Level(); got != want {
			t.Fatalf("SetString(%q): expected %v, got %v", in, want, got)
		}
	}
	if err := lv.SetString("loud"); !errors.Is(err, tuning.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestLevelerDrivesHandler(t *testing.T) {
	reg := tuning.New()
	lv := New(reg, "log", "level", slog.LevelWarn)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: lv}))

	logger.Info("hidden")
	lv.Set(slog.LevelDebug)
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected INFO to be filtered at WARN, got %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("expected INFO to pass at DEBUG, got %q", out)
	}
}
