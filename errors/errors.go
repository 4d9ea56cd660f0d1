package errors

import "fmt"

// Error taxonomy shared by every layer. Callers match with errors.Is and
// wrap with fmt.Errorf("%w: ...") to add context.
var (
	// ErrArgument marks malformed input: bad identifier format, missing
	// required field, wrong model shape. Distinct from ErrNotFound.
	ErrArgument = fmt.Errorf("invalid argument")

	// ErrNotFound marks a valid identifier that resolves to nothing.
	ErrNotFound = fmt.Errorf("not found")

	// ErrConflict marks a duplicate insert or a stale change stamp on a
	// conditional replace.
	ErrConflict = fmt.Errorf("conflict")

	// ErrUnauthorized marks a handshake or token failure at the gate.
	ErrUnauthorized = fmt.Errorf("unauthorized")

	// ErrInvalidOperation marks a registry call carrying neither a user
	// nor a conversation routing key.
	ErrInvalidOperation = fmt.Errorf("invalid operation")

	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrInvalidPayload     = fmt.Errorf("invalid event payload")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)
