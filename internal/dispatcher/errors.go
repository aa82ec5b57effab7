package dispatcher

import "errors"

var (
	// ErrRunActive is returned by Run while another run is in flight
	ErrRunActive = errors.New("a dispatch run is already active")

	// ErrTurnFailed wraps the cause of a failure that aborted the whole turn
	ErrTurnFailed = errors.New("turn failed")
)
