// Package tuningslog binds a tuning variable to log/slog.
//
// A Leveler stores the minimum log level as an Int32 variable, so a handler
// built with it follows changes made through a watched file or a remote
// client without a restart.
package tuningslog
