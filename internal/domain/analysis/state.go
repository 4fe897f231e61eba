package analysis

import "time"

// Phase of a user's analysis
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseFailed    Phase = "failed"
	PhaseSucceeded Phase = "succeeded"
)

// State is what the result panel renders for one user.
// Report is only set in PhaseSucceeded and Reason only in PhaseFailed.
type State struct {
	ID        string    `json:"id,omitempty"`
	Phase     Phase     `json:"phase"`
	Request   *Request  `json:"request,omitempty"`
	Report    Report    `json:"report,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	StartedAt time.Time `json:"started_at,omitzero"`
	SettledAt time.Time `json:"settled_at,omitzero"`
}

func (s State) Loading() bool { return s.Phase == PhaseLoading }
