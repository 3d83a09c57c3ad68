// Package audit carries gate decisions to an external sink without blocking
// the request path. The [Dispatcher] buffers events on a channel serviced by
// a single goroutine; under backpressure it either blocks or drops and
// counts, per configuration.
//
// # What this package must NOT do
//
//   - Import authgate or any sibling internal package.
//   - Include credential material in events (accounts and token ids only).
package audit
