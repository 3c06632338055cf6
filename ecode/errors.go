package ecode

import "fmt"

// FieldIsRequired names missing request fields.
func FieldIsRequired(field string) string {
	return fmt.Sprintf("%s required", field)
}

// ExceedsLimit names a field that is over its ceiling.
func ExceedsLimit(field string, limit int) string {
	return fmt.Sprintf("%s exceeds limit of %d", field, limit)
}
