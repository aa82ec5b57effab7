package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse is returned when no text can be found in a response
	ErrMalformedResponse = errors.New("malformed LLM response")

	// ErrTransportUnreachable matches any *TransportError of KindUnreachable
	ErrTransportUnreachable = errors.New("LLM endpoint unreachable")
)

// ErrorKind categorizes transport failures
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnreachable
	KindStatus
	KindRequest
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindStatus:
		return "status"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// TransportError is returned by Client.Complete
type TransportError struct {
	Kind    ErrorKind
	URL     string
	Status  int
	Message string
	Cause   error
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrTransportUnreachable) match connection failures
func (e *TransportError) Is(target error) bool {
	return target == ErrTransportUnreachable && e.Kind == KindUnreachable
}

func unreachable(url string, cause error) *TransportError {
	return &TransportError{
		Kind: KindUnreachable,
		URL:  url,
		Message: fmt.Sprintf("Cannot connect to local LLM at %s. Please ensure your LLM server is running and accessible.",
			url),
		Cause: cause,
	}
}
