package navigation

import "errors"

// Error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
	ErrCodeTimeout           = "timeout"
	ErrCodeNotInitialized    = "not_initialized"
)

// ErrCircuitOpen is returned while the HTTP circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker open")

// Error represents a failure talking to the results site
type Error struct {
	Source  string // Navigator name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new navigation error
func NewError(source, code, message string, err error) *Error {
	return &Error{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode reports whether err is a navigation error with the given code
func IsCode(err error, code string) bool {
	var navErr *Error
	return errors.As(err, &navErr) && navErr.Code == code
}
