package errors

import "fmt"

var (
	ErrWorkerPanic     = fmt.Errorf("worker panic")
	ErrUsernameTaken   = fmt.Errorf("username already taken")
	ErrUnknownUser     = fmt.Errorf("unknown username")
	ErrUnknownChat     = fmt.Errorf("unknown chat")
	ErrNotAnImage      = fmt.Errorf("payload is not an image")
	ErrMalformedImage  = fmt.Errorf("malformed image payload")
	ErrSessionNotFound = fmt.Errorf("session not found")
)
