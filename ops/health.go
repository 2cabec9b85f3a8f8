package ops

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type healthConfig struct {
	format Format
}

// HealthOption configures HealthzHandler / ReadyzHandler.
type HealthOption func(*healthConfig)

// WithHealthDefaultFormat sets the default response format. Default is FormatText.
func WithHealthDefaultFormat(f Format) HealthOption {
	return func(c *healthConfig) { c.format = f }
}

func applyHealthOptions(opts []HealthOption) healthConfig {
	cfg := healthConfig{format: FormatText}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if !cfg.format.valid() {
		cfg.format = FormatText
	}
	return cfg
}

type healthResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// HealthzHandler returns a liveness handler: 200 "ok" for GET/HEAD.
func HealthzHandler(opts ...HealthOption) http.Handler {
	cfg := applyHealthOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeResponse(w, r, format, http.StatusMethodNotAllowed,
				healthResponse{Error: "method not allowed"}, textLine("method not allowed"))
			return
		}
		writeResponse(w, r, format, http.StatusOK, healthResponse{OK: true}, textLine("ok"))
	})
}

// ReadyCheck is a named readiness check. Func returns nil when ready.
type ReadyCheck struct {
	Name    string
	Func    func(context.Context) error
	Timeout time.Duration // <= 0: no extra timeout
}

// ReadyCheckResult is one check's outcome.
type ReadyCheckResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ReadyzReport is a readiness report.
type ReadyzReport struct {
	OK     bool               `json:"ok"`
	Checks []ReadyCheckResult `json:"checks,omitempty"`
}

// ReadyzHandler runs checks sequentially: 200 when all pass, 503 otherwise.
//
// It panics if a check has an empty Name or nil Func.
func ReadyzHandler(checks []ReadyCheck, opts ...HealthOption) http.Handler {
	for i, c := range checks {
		if c.Name == "" {
			panic(fmt.Sprintf("ops: ready check[%d] has empty Name", i))
		}
		if c.Func == nil {
			panic(fmt.Sprintf("ops: ready check[%d] %q has nil Func", i, c.Name))
		}
	}
	cfg := applyHealthOptions(opts)
	snapshot := append([]ReadyCheck(nil), checks...)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeResponse(w, r, format, http.StatusMethodNotAllowed,
				healthResponse{Error: "method not allowed"}, textLine("method not allowed"))
			return
		}
		rep := RunReadyzChecks(r.Context(), snapshot)
		code := http.StatusOK
		if !rep.OK {
			code = http.StatusServiceUnavailable
		}
		writeResponse(w, r, format, code, rep, func(b *strings.Builder) {
			if rep.OK {
				b.WriteString("ok\n")
				return
			}
			for _, c := range rep.Checks {
				if !c.OK {
					b.WriteString("fail " + c.Name + ": " + escapeTextField(c.Error) + "\n")
				}
			}
		})
	})
}

// RunReadyzChecks executes checks sequentially. A panicking check fails.
func RunReadyzChecks(ctx context.Context, checks []ReadyCheck) ReadyzReport {
	rep := ReadyzReport{OK: true, Checks: make([]ReadyCheckResult, 0, len(checks))}
	for _, c := range checks {
		res := runCheck(ctx, c)
		rep.OK = rep.OK && res.OK
		rep.Checks = append(rep.Checks, res)
	}
	return rep
}

func runCheck(parent context.Context, c ReadyCheck) (res ReadyCheckResult) {
	res.Name = c.Name
	ctx, cancel := parent, context.CancelFunc(func() {})
	if c.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, c.Timeout)
	}
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			res.OK, res.Error = false, fmt.Sprintf("panic: %v", p)
		}
	}()
	if err := c.Func(ctx); err != nil {
		res.Error = err.Error()
		return res
	}
	res.OK = true
	return res
}
