// Package openapi derives form declarations from OpenAPI component schemas.
// kin-openapi does the loading and reference resolution; this package only
// maps property types, formats and constraints onto codec names and rules.
package openapi
