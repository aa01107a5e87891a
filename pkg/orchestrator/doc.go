// Package orchestrator wires the loader, OpenAPI importer, form and encoder
// into a single entry point: a schema source and an optional value go in,
// encoded form state comes out.
package orchestrator
