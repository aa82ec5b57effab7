package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKey is returned by Set, Delete and Value for unsupported keys
var ErrUnknownKey = errors.New("unknown config key")

// ValidationError describes one invalid setting
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid setting found by Validate
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}
