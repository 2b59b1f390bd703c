// internal/websocket/errors.go
package websocket

import (
	"errors"
	"fmt"
)

var (
	ErrTokenBlacklisted = errors.New("token has been blacklisted")
	ErrInvalidToken     = errors.New("invalid token")
)

// ClientError is a handler failure the client may see. Any other error is
// logged and reported as a generic handler_error.
type ClientError struct {
	Code    string
	Message string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewClientError(code, message string) *ClientError {
	return &ClientError{Code: code, Message: message}
}
