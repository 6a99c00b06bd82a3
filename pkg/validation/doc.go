/*
Package validation classifies wizard field values as valid or invalid.

Rules are pure, deterministic and total: every FieldKey maps to exactly one
rule, unknown keys always pass, and no rule performs I/O. Collaborator data
(the catalog service, the calendar, the fetched slots) is read from the
domain.Context handed in by the caller.

Usage:

	rules := validation.Default()
	if err := rules.Validate(domain.FieldZip, "1", ctx); err != nil {
		var fe *validation.FieldError
		errors.As(err, &fe) // fe.Code == domain.CodeInvalidFormat
	}
*/
package validation
