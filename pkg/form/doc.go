// Package form implements the field state engine that sits between raw user
// input and a mutable, observable domain object.
//
// A Form declares which fields of a domain type are editable and how each is
// converted (a codec.Codec) and validated. Binding a Form to a model.Model
// yields a FormState, which hands out one FieldAccessor per path. Accessors
// hold the raw text, the last accepted value, the error and the in-flight
// flag. SetRaw runs raw validation, conversion and value validation. Raw
// validators and codecs run on the caller's goroutine before SetRaw returns,
// so they must not block; only value validators may block, and they run off
// the caller's goroutine. Only the most
// recently issued update of an accessor may take effect: results of older
// updates are dropped when they complete, whatever order they finish in. A
// successful update writes the domain object exactly once (ModeValue) or
// stages the value until Commit (ModeCommit).
//
// Groups restrict a FormState to a subset of paths. A GroupAccessor refuses
// lookups outside its subset with ErrAccess and validates only its own fields,
// so disjoint groups can be valid and invalid at the same time.
//
// Rendering code reads FieldAccessor.ValidationProps, which evaluates the
// form's PropsFunc (WithValidationProps) or the process-wide one installed by
// SetupValidationProps. Without either, props are empty.
package form
