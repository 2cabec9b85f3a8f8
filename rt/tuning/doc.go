// Package tuning provides a registry of runtime-tunable variables.
//
// Production code declares numeric and boolean variables, reads them on every
// frame or request, and external tools (a watched file, a remote client)
// change them while the process runs.
//
// # Design highlights
//
//   - Variables are keyed by (category, name). Keys are case-sensitive.
//   - Declarations (Float32 / Float64 / Int32 / Int64 / Bool) are immutable
//     values; the Registry owns all stored state.
//   - Numeric writes are clamped to [min, max]. A missing bound is
//     unbounded on that side. NaN is never stored, and ±Inf is stored only
//     when a bound clamps it to a finite value.
//   - Registration is idempotent: the first registration of a key wins.
//   - Nothing on the Registry returns an error or panics on unknown keys or
//     kind mismatches: lookups report absent, writes report false.
//
// # Quick start
//
//	reg := tuning.New()
//	gravity := tuning.NewFloat32(reg, "physics", "gravity", 9.8,
//		tuning.WithMin[float32](0), tuning.WithMax[float32](20))
//	gravity.Register()
//
//	g := gravity.Read()
//	gravity.Write(30) // stored as 20
//	gravity.Reset()   // back to 9.8
//
// # Key-based access
//
// Get, Set and Reset address a key directly, with the kind picked by the type
// parameter:
//
//	v, ok := tuning.Get[float32](reg, "physics", "gravity")
//	ok = tuning.Set(reg, "physics", "gravity", float32(3))
//
// Get[int64] on a Float32 variable reports absent; Set[int64] reports false.
//
// # Auto-registration
//
// Read on a missing key registers the declaration and returns its default, so
// reads never fail. Write does the same before storing (logged at Warn)
// unless the Registry is built with WithRegisterOnWrite(false).
//
// # Concurrency
//
// One sync.RWMutex guards the whole registry. Get / IsRegistered / Snapshot /
// Lookup take the read lock; Register / Set / Reset / Apply take the write
// lock. Each call is atomic on its own, but a Get followed by a Set is not: do
// not build read-modify-write on top of this package.
//
// # Snapshots
//
// Snapshot returns a deep copy of every variable as a State
// (category -> name -> Tuneable). Tuneable is a closed set:
// *Float32Variable, *Float64Variable, *Int32Variable, *Int64Variable,
// *BooleanVariable.
package tuning
