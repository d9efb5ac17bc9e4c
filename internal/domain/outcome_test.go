package domain

import (
	"errors"
	"testing"
)

func TestOutcome_Text(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    string
	}{
		{"success", Succeeded(), "PASS"},
		{"rejected", Rejected("CHECKSUM_ERR"), "CHECKSUM_ERR"},
		{"rejected empty", Rejected(""), "device rejected the write"},
		{"not found", NotFound(""), "programmer not found"},
		{"comm error", CommFailed(errors.New("broken pipe")), "communication error: broken pipe"},
		{"comm error nil", CommFailed(nil), "communication error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutcomeKind_String(t *testing.T) {
	tests := []struct {
		kind OutcomeKind
		want string
	}{
		{OutcomeSuccess, "Success"},
		{OutcomeDeviceRejected, "DeviceRejected"},
		{OutcomeDeviceNotFound, "DeviceNotFound"},
		{OutcomeCommunicationError, "CommunicationError"},
		{OutcomeKind(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("OutcomeKind(%d).String() = %s, want %s", tt.kind, got, tt.want)
		}
	}
}
