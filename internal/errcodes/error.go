package errcodes

import "fmt"

// Error is the concrete error type carried through the data path. It is
// never returned directly from Agent.Intercept — the Agent converts it into
// an InterceptResult error variant — but it is the type integrity faults
// (hash mismatch, disposed-handle misuse) are raised as.
type Error struct {
	Code      Code
	Message   string
	Recoverable bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an Error for the given code.
func New(code Code, message string, recoverable bool) *Error {
	return &Error{Code: code, Message: message, Recoverable: recoverable}
}
