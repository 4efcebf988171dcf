package core

import "fmt"

var (
	// ErrSessionNotFound is returned when a session for the given user / id
	// pair does not exist or has already expired. Absence is a normal outcome
	// for lookups; callers typically translate it into a not-found response.
	ErrSessionNotFound = fmt.Errorf("session not found")
)
