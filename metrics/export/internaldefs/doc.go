// Package internaldefs holds the shared metric-name table consumed by the
// exporter packages. It exists so every exporter publishes the same set of
// names; it is not intended for direct use by applications.
package internaldefs
