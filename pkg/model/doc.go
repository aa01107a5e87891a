// Package model defines the render description produced by a form pass: a
// tree of Nodes mirroring the schema/value walk. Array items carry a Handle
// exposing the structural operations allowed for that item on the current
// pass (move up/down, remove, append) together with the change callback that
// writes the item back into its array. Handles are rebuilt every pass and must
// not be retained across passes.
package model
