package application

import "errors"

var (
	// ErrNotFound is returned when the requested session or range does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrImmutableRange is returned when a caller tries to edit or remove a scheduled range.
	ErrImmutableRange = errors.New("application: scheduled ranges cannot be modified")
	// ErrSessionExpired is returned when an editing session has been idle past its TTL.
	ErrSessionExpired = errors.New("application: session expired")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
