package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the programming domain.
// These errors can be checked with errors.Is.
var (
	// ErrDeviceNotFound is returned when no channel matches the device descriptor.
	ErrDeviceNotFound = errors.New("icmprog: device not found")

	// ErrAmbiguousDevice is returned when more than one channel matches.
	ErrAmbiguousDevice = errors.New("icmprog: more than one matching device")

	// ErrReadTimeout is returned when the device does not answer in time.
	ErrReadTimeout = errors.New("icmprog: read timeout")

	// ErrAlreadyRunning is returned when Start() is called on a running station.
	ErrAlreadyRunning = errors.New("icmprog: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped station.
	ErrNotRunning = errors.New("icmprog: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("icmprog: shutdown timeout")

	// ErrInvalidUnitID is returned when a unit identifier cannot name a record.
	ErrInvalidUnitID = errors.New("icmprog: invalid unit id")
)

// ValidationError reports a profile field outside its allowed range.
type ValidationError struct {
	Model string
	Field string
	Value int
	Min   int
	Max   int
}

func (e *ValidationError) Error() string {
	if e.Field == "Model" {
		return "profile: model name is required"
	}
	return fmt.Sprintf("profile %s: %s %d outside %d..%d", e.Model, e.Field, e.Value, e.Min, e.Max)
}
