// Package filesync keeps a tuning.Registry in sync with a TOML file.
//
// The file is a two-level table, category then name:
//
//	[float]
//	name1 = 0.5
//
//	[bool]
//	name3 = true
//
// Open applies the file once, synchronously, then starts one worker goroutine
// that watches the file's directory and re-applies the whole file after each
// burst of changes. A burst that leaves the file removed or renamed away is
// logged and skipped; the next write or create reloads it. Only values for already-registered keys are applied; the
// file never creates variables.
//
// Value mapping:
//
//   - integer: Int64 key, else Int32 key (saturated to the int32 range)
//   - float:   Float64 key, else Float32 key (saturated to the float32 range)
//   - bool:    Boolean key
//
// Strings, datetimes, arrays, nested tables and the non-finite floats nan and
// ±inf are not supported and are logged at Warn. Every value that could not be applied is logged at Error
// ("unknown tuneable") and the rest of the file is still applied.
package filesync
