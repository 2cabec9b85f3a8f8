// Package ops provides net/http handlers for livetune's operational endpoints.
//
// Handlers do not choose paths and do not authenticate; livetune.Service
// mounts them under /-/ on the asset server.
//
// # Formats
//
// Every handler renders text by default. The default can be changed by
// option, and overridden per request with ?format=text or ?format=json.
// Text output is line-based and tab-separated:
//
//	tuning	float/name1	kind	Float32
//	tuning	float/name1	current	0.5
//
// # What ops provides
//
//   - health: HealthzHandler (liveness), ReadyzHandler (named checks)
//   - tuning: TuningSnapshotHandler, TuningLookupHandler, TuningSetHandler,
//     TuningResetHandler (rt/tuning integration)
//
// Tuning keys are addressed with ?category=<c>&name=<n>.
package ops
