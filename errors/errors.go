package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Authentication and gating failures. These map one-to-one onto the
	// structured error frames sent back to the originating session.
	ErrInvalidCredential = fmt.Errorf("invalid credential")
	ErrNotAuthenticated  = fmt.Errorf("authentication required")
	ErrRateLimited       = fmt.Errorf("sending too fast")

	// Front door failures.
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid username or password")
	ErrInvalidPassword    = fmt.Errorf("password does not meet requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)
