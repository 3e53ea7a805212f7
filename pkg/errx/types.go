package errx

// Type represents the category of error
type Type string

const (
	// TypeInternal represents internal server errors
	TypeInternal Type = "INTERNAL"

	// TypeValidation represents malformed requests (caller's fault)
	TypeValidation Type = "VALIDATION"

	// TypeAuthorization represents authorization/authentication errors
	TypeAuthorization Type = "AUTHORIZATION"

	// TypeNotFound represents a referenced resource that does not exist
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict represents operations that collide with one in flight
	TypeConflict Type = "CONFLICT"

	// TypeExternal represents errors from external services (relay, stores)
	TypeExternal Type = "EXTERNAL"
)

// String returns the string representation of the error type
func (t Type) String() string {
	return string(t)
}

// Transient reports whether errors of this type may succeed when retried.
func (t Type) Transient() bool {
	return t == TypeExternal
}
