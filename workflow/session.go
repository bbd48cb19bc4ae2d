// Package workflow drives a generation session from prompt to saved file:
// resolve a service, generate with retries, preview, collect the user's
// verdict, and persist on approval. The session is modeled as an explicit
// state machine so every path through the interaction is a named transition.
package workflow

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bgforge/logging"
)

// State is a phase of a generation session.
type State string

const (
	StateIdle             State = "idle"
	StatePrompting        State = "prompting"
	StateGenerating       State = "generating"
	StatePreviewing       State = "previewing"
	StateAwaitingApproval State = "awaiting_approval"
	StateApproved         State = "approved"
	StateRegenerating     State = "regenerating"
	StateSaving           State = "saving"
	StateDone             State = "done"
	StateAborted          State = "aborted"
	StateFailed           State = "failed"
)

// validTransitions is the complete transition table. Anything not listed is
// a programming error, not a user-facing condition.
var validTransitions = map[State][]State{
	StateIdle:             {StatePrompting, StateFailed, StateAborted},
	StatePrompting:        {StateGenerating, StateFailed, StateAborted},
	StateGenerating:       {StatePreviewing, StateFailed, StateAborted},
	StatePreviewing:       {StateAwaitingApproval, StateFailed, StateAborted},
	StateAwaitingApproval: {StateApproved, StateRegenerating, StateAborted, StateFailed},
	StateRegenerating:     {StateGenerating, StateFailed, StateAborted},
	StateApproved:         {StateSaving, StateFailed, StateAborted},
	StateSaving:           {StateDone, StateFailed},
	StateDone:             {},
	StateAborted:          {},
	StateFailed:           {},
}

// Terminal reports whether no further transitions are possible from s.
func (s State) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// Session tracks one generation interaction: its current state, the resolved
// service, the active prompt, and how many generation rounds have run.
type Session struct {
	state         State
	correlationID string
	service       string
	prompt        string
	rounds        int
	logger        *logging.Logger
}

// NewSession creates an idle session with a fresh correlation ID. Every log
// entry the session emits carries the ID so one run can be traced end to end.
func NewSession(logger *logging.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		state:         StateIdle,
		correlationID: id,
		logger:        logger.Named("session").With(zap.String("correlation_id", id)),
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// CorrelationID returns the session's trace identifier.
func (s *Session) CorrelationID() string { return s.correlationID }

// Service returns the resolved service name, once set.
func (s *Session) Service() string { return s.service }

// SetService records the resolved service. It is set once per session;
// regeneration reuses it.
func (s *Session) SetService(name string) { s.service = name }

// Prompt returns the active prompt text.
func (s *Session) Prompt() string { return s.prompt }

// SetPrompt records the active prompt. Regeneration may revise it.
func (s *Session) SetPrompt(p string) { s.prompt = p }

// Rounds returns how many generation rounds have started.
func (s *Session) Rounds() int { return s.rounds }

// To moves the session to next, enforcing the transition table.
func (s *Session) To(next State) error {
	for _, allowed := range validTransitions[s.state] {
		if next == allowed {
			s.logger.Debug("state transition",
				zap.String("from", string(s.state)),
				zap.String("to", string(next)))
			s.state = next
			if next == StateGenerating {
				s.rounds++
			}
			return nil
		}
	}
	return fmt.Errorf("workflow: invalid transition %s -> %s", s.state, next)
}
