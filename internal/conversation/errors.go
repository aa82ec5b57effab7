package conversation

import "errors"

var (
	ErrNoRunner     = errors.New("conversation requires a dispatcher")
	ErrClosed       = errors.New("conversation is closed")
	ErrInputTooLong = errors.New("input exceeds maximum length")
)
