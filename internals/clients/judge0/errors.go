package judge0

import (
	"errors"
	"fmt"
)

type ErrorType int

const (
	ErrorTypeGeneral ErrorType = iota
	ErrorTypeUnauthorized
	ErrorTypeRateLimit
	ErrorTypeTimeout
)

// ClientError wraps failures talking to the execution API.
type ClientError struct {
	Type       ErrorType
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("judge0: %s (status %d)", e.Message, e.StatusCode)
	}
	return "judge0: " + e.Message
}

func IsRateLimitError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrorTypeRateLimit
}

func IsTimeoutError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrorTypeTimeout
}

func newStatusError(status int, body string) *ClientError {
	t := ErrorTypeGeneral
	switch status {
	case 401, 403:
		t = ErrorTypeUnauthorized
	case 429:
		t = ErrorTypeRateLimit
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return &ClientError{Type: t, StatusCode: status, Message: body}
}
