package workflow

import (
	"testing"

	"bgforge/logging"
)

func TestSession_HappyPathTransitions(t *testing.T) {
	s := NewSession(logging.Nop())
	if s.State() != StateIdle {
		t.Fatalf("initial state = %s", s.State())
	}

	path := []State{
		StatePrompting, StateGenerating, StatePreviewing,
		StateAwaitingApproval, StateApproved, StateSaving, StateDone,
	}
	for _, next := range path {
		if err := s.To(next); err != nil {
			t.Fatalf("To(%s) error = %v", next, err)
		}
	}
	if !s.State().Terminal() {
		t.Error("Done should be terminal")
	}
}

func TestSession_RegenerationLoop(t *testing.T) {
	s := NewSession(logging.Nop())
	for _, next := range []State{
		StatePrompting, StateGenerating, StatePreviewing, StateAwaitingApproval,
		StateRegenerating, StateGenerating, StatePreviewing, StateAwaitingApproval,
		StateApproved,
	} {
		if err := s.To(next); err != nil {
			t.Fatalf("To(%s) error = %v", next, err)
		}
	}
	if s.Rounds() != 2 {
		t.Errorf("Rounds() = %d, want 2", s.Rounds())
	}
}

func TestSession_InvalidTransitionsRejected(t *testing.T) {
	tests := []struct {
		name string
		walk []State
		bad  State
	}{
		{"idle cannot save", nil, StateSaving},
		{"cannot approve before preview", []State{StatePrompting, StateGenerating}, StateApproved},
		{"done is terminal", []State{StatePrompting, StateGenerating, StatePreviewing, StateAwaitingApproval, StateApproved, StateSaving, StateDone}, StatePrompting},
		{"aborted is terminal", []State{StateAborted}, StatePrompting},
		{"saving cannot abort", []State{StatePrompting, StateGenerating, StatePreviewing, StateAwaitingApproval, StateApproved, StateSaving}, StateAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(logging.Nop())
			for _, next := range tt.walk {
				if err := s.To(next); err != nil {
					t.Fatalf("setup To(%s) error = %v", next, err)
				}
			}
			if err := s.To(tt.bad); err == nil {
				t.Errorf("To(%s) from %s succeeded, want error", tt.bad, s.State())
			}
		})
	}
}

func TestSession_CorrelationIDsAreUnique(t *testing.T) {
	a := NewSession(logging.Nop())
	b := NewSession(logging.Nop())
	if a.CorrelationID() == "" || a.CorrelationID() == b.CorrelationID() {
		t.Error("correlation IDs must be unique and non-empty")
	}
}
