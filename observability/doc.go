// Package observability wires OpenTelemetry metric and trace export.
// Both providers are optional: when disabled, the global otel no-op
// providers stay in place and instrumented code costs nothing.
package observability
