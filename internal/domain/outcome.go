package domain

import "time"

// OutcomeKind classifies the result of one transport exchange.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeDeviceRejected
	OutcomeDeviceNotFound
	OutcomeCommunicationError
)

// String returns a human-readable representation of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "Success"
	case OutcomeDeviceRejected:
		return "DeviceRejected"
	case OutcomeDeviceNotFound:
		return "DeviceNotFound"
	case OutcomeCommunicationError:
		return "CommunicationError"
	default:
		return "Unknown"
	}
}

// Outcome is the interpreted result of one exchange with the device.
type Outcome struct {
	Kind OutcomeKind

	// Detail is the device's reply for rejections and the failure text for
	// transport errors. Empty on success.
	Detail string
}

// Success reports whether the device acknowledged the write.
func (o Outcome) Success() bool {
	return o.Kind == OutcomeSuccess
}

// Text returns a short operator-facing description.
func (o Outcome) Text() string {
	switch o.Kind {
	case OutcomeSuccess:
		return ReplyPass
	case OutcomeDeviceRejected:
		if o.Detail == "" {
			return "device rejected the write"
		}
		return o.Detail
	case OutcomeDeviceNotFound:
		return "programmer not found"
	default:
		if o.Detail == "" {
			return "communication error"
		}
		return "communication error: " + o.Detail
	}
}

// Succeeded builds a Success outcome.
func Succeeded() Outcome {
	return Outcome{Kind: OutcomeSuccess}
}

// Rejected builds a DeviceRejected outcome carrying the device reply.
func Rejected(reply string) Outcome {
	return Outcome{Kind: OutcomeDeviceRejected, Detail: reply}
}

// NotFound builds a DeviceNotFound outcome.
func NotFound(detail string) Outcome {
	return Outcome{Kind: OutcomeDeviceNotFound, Detail: detail}
}

// CommFailed builds a CommunicationError outcome from err.
func CommFailed(err error) Outcome {
	o := Outcome{Kind: OutcomeCommunicationError}
	if err != nil {
		o.Detail = err.Error()
	}
	return o
}

// Result is one finished programming attempt, as published to monitoring.
type Result struct {
	UnitID   string        `json:"unit"`
	Model    string        `json:"model"`
	Outcome  string        `json:"outcome"`
	Detail   string        `json:"detail,omitempty"`
	Summary  string        `json:"summary"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`

	// Recorded is set when the audit record for a successful write was written
	Recorded bool `json:"recorded"`
}
