// Package registry describes the ordered steps of the booking wizard and
// answers visibility, completeness and navigation questions over a context.
package registry
