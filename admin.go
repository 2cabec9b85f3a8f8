package livetune

import (
	"net/http"

	"github.com/evan-idocoding/livetune/ops"
	"github.com/evan-idocoding/livetune/rt/tuning"
)

// AdminSpec configures NewAdmin.
type AdminSpec struct {
	// ReadyChecks back /readyz. Empty => always ready.
	ReadyChecks []ops.ReadyCheck

	// Format is the default response format when the request has no
	// ?format= parameter. Zero value is ops.FormatText.
	Format ops.Format

	// AllowCategories restricts every tuning endpoint to the listed
	// categories. Empty => no restriction.
	AllowCategories []string

	// Writes enables /tuning/set and /tuning/reset. Off by default.
	Writes bool
}

// NewAdmin assembles the admin subtree for r.
//
// Paths are fixed:
//   - /healthz
//   - /readyz
//   - /tuning
//   - /tuning/lookup
//   - /tuning/set (Writes only)
//   - /tuning/reset (Writes only)
//
// It panics if r is nil.
func NewAdmin(r *tuning.Registry, spec AdminSpec) http.Handler {
	if r == nil {
		panic("livetune: NewAdmin: nil Registry")
	}

	healthOpts := []ops.HealthOption{ops.WithHealthDefaultFormat(spec.Format)}
	tuningOpts := []ops.TuningOption{ops.WithTuningDefaultFormat(spec.Format)}
	if len(spec.AllowCategories) > 0 {
		tuningOpts = append(tuningOpts, ops.WithTuningAllowCategories(spec.AllowCategories...))
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", ops.HealthzHandler(healthOpts...))
	mux.Handle("/readyz", ops.ReadyzHandler(spec.ReadyChecks, healthOpts...))
	mux.Handle("/tuning", ops.TuningSnapshotHandler(r, tuningOpts...))
	mux.Handle("/tuning/lookup", ops.TuningLookupHandler(r, tuningOpts...))
	if spec.Writes {
		mux.Handle("/tuning/set", ops.TuningSetHandler(r, tuningOpts...))
		mux.Handle("/tuning/reset", ops.TuningResetHandler(r, tuningOpts...))
	}
	return mux
}
