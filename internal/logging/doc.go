// Package logging wraps log/slog with the conventions used across satkit:
// component loggers, standardized field keys, and console/json output
// selection driven by configuration.
//
// All packages accept a *slog.Logger and derive a component logger via
// NewComponentLogger. Passing nil is always safe and yields a no-op logger,
// which keeps library code quiet in tests.
package logging
