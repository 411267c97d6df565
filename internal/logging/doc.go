// Package logging builds the slog loggers used across changecast.
//
// Two output formats are supported: a compact colored console format for
// interactive use and a JSON format for machine consumption. Components
// derive their loggers with NewComponentLogger so every record carries a
// "component" attribute.
package logging
