package tuningslog

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/evan-idocoding/livetune/rt/tuning"
)

// Leveler is a slog.Leveler backed by an Int32 tuning variable.
//
// The variable holds the numeric slog level (Debug=-4, Info=0, Warn=4,
// Error=8) and is bounded to [Debug, Error].
type Leveler struct {
	v tuning.Int32
}

var _ slog.Leveler = Leveler{}

// New declares and registers the level variable under (category, name).
func New(r *tuning.Registry, category, name string, def slog.Level) Leveler {
	v := tuning.NewInt32(r, category, name, int32(def),
		tuning.WithMin(int32(slog.LevelDebug)),
		tuning.WithMax(int32(slog.LevelError)))
	v.Register()
	return Leveler{v: v}
}

// Level implements slog.Leveler. It reads the registry on every call.
func (l Leveler) Level() slog.Level {
	return slog.Level(l.v.Read())
}

// Set stores lv, clamped to [Debug, Error].
func (l Leveler) Set(lv slog.Level) {
	l.v.Write(int32(lv))
}

// SetString parses a level name and stores it.
//
// Accepted values are case-insensitive: debug / info / warn / error, plus the
// aliases warning and err.
func (l Leveler) SetString(s string) error {
	lv, ok := parseLevel(s)
	if !ok {
		return fmt.Errorf("%w: unknown log level %q", tuning.ErrInvalidValue, s)
	}
	l.Set(lv)
	return nil
}

// Reset restores the declared default level.
func (l Leveler) Reset() { l.v.Reset() }

// Var returns the underlying declaration.
func (l Leveler) Var() tuning.Int32 { return l.v }

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error", "err":
		return slog.LevelError, true
	default:
		return 0, false
	}
}
