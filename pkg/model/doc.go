// Package model defines the domain object boundary the form engine binds to.
// The engine only needs per-path reads, single-mutation writes, change
// notifications and a description of which paths exist; Model and Shape
// capture exactly that so any observable object system can be substituted.
// Object is the map-backed implementation used by the CLI and the tests, and
// Schema derives a Shape from Go structs. Snapshot and Restore convert values
// held by custom types (for example decimals) at the persisted boundary.
package model
