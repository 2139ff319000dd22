package appointment

import (
	"errors"
	"testing"
)

func TestNextState(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		action  Action
		want    Status
		wantErr bool
	}{
		{"confirm pending", StatusPending, ActionConfirm, StatusConfirmed, false},
		{"reject pending", StatusPending, ActionReject, StatusRejected, false},
		{"cancel pending", StatusPending, ActionCancel, StatusCancelled, false},
		{"complete pending", StatusPending, ActionComplete, "", true},
		{"complete confirmed", StatusConfirmed, ActionComplete, StatusCompleted, false},
		{"cancel confirmed", StatusConfirmed, ActionCancel, StatusCancelled, false},
		{"confirm confirmed", StatusConfirmed, ActionConfirm, "", true},
		{"reject confirmed", StatusConfirmed, ActionReject, "", true},
		{"confirm completed", StatusCompleted, ActionConfirm, "", true},
		{"cancel completed", StatusCompleted, ActionCancel, "", true},
		{"confirm rejected", StatusRejected, ActionConfirm, "", true},
		{"confirm cancelled", StatusCancelled, ActionConfirm, "", true},
		{"unknown status", Status("Archived"), ActionConfirm, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextState(tt.current, tt.action)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("Expected ErrInvalidTransition, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusPending:   false,
		StatusConfirmed: false,
		StatusRejected:  true,
		StatusCancelled: true,
		StatusCompleted: true,
	}
	for s, want := range terminal {
		if got := s.IsTerminal(); got != want {
			t.Errorf("Expected %s terminal=%v, got %v", s, want, got)
		}
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus("confirmed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got != StatusConfirmed {
		t.Errorf("Expected Confirmed, got %s", got)
	}

	if _, err := ParseStatus("archived"); err == nil {
		t.Error("Expected error for unknown status")
	}
}
