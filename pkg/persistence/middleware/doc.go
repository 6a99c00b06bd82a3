// Package middleware provides StateStore decorators: PII masking of field
// values and at-rest encryption of whole snapshots.
package middleware
