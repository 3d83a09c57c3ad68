// Package otel bridges the gate's in-process counters to OpenTelemetry.
//
// [NewExporter] registers one Int64ObservableCounter per gate counter plus
// an audit-drop counter. A single callback reads the gate's metrics
// snapshot on each collection cycle; nothing is pushed between cycles.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate gate state.
package otel
