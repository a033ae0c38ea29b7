package domain

import "time"

// SessionState represents the lifecycle state of a patient session
type SessionState string

const (
	// SessionStateActive - Session accepts new turns
	SessionStateActive SessionState = "ACTIVE"
	// SessionStateExpired - Session reached its interaction ceiling and must be recreated
	SessionStateExpired SessionState = "EXPIRED"
)

// Turn represents one doctor utterance and the patient's answer to it
type Turn struct {
	Doctor  string `json:"doctor"`
	Patient string `json:"patient"`
}

// Answered reports whether the patient side of the turn has been recorded
func (t Turn) Answered() bool {
	return t.Patient != ""
}

// PatientSession represents the conversational context of one simulated patient
type PatientSession struct {
	ID             string       `json:"id"`
	Disease        string       `json:"disease"`
	PatientName    string       `json:"patientName"`
	Interactions   int          `json:"interactions"`
	History        []Turn       `json:"history"`
	State          SessionState `json:"state"`
	CreatedAt      time.Time    `json:"createdAt"`
	LastAccessTime time.Time    `json:"lastAccessTime"`
}

// NewPatientSession creates an active session with an empty history.
// Disease and patient name are fixed for the lifetime of the session.
func NewPatientSession(id, disease, patientName string) *PatientSession {
	now := time.Now()
	return &PatientSession{
		ID:             id,
		Disease:        disease,
		PatientName:    patientName,
		History:        make([]Turn, 0),
		State:          SessionStateActive,
		CreatedAt:      now,
		LastAccessTime: now,
	}
}

// IsExpired checks if the session reached its ceiling or has been idle longer than idleTimeout.
// A zero idleTimeout disables the idle check.
func (s *PatientSession) IsExpired(idleTimeout time.Duration) bool {
	if s.State == SessionStateExpired {
		return true
	}
	return idleTimeout > 0 && time.Since(s.LastAccessTime) > idleTimeout
}

// AppendDoctorTurn appends a turn whose patient utterance is still empty
func (s *PatientSession) AppendDoctorTurn(text string) {
	s.History = append(s.History, Turn{Doctor: text})
}

// RecordPatientReply fills the patient side of the most recent turn.
// It returns false when there is no pending turn to answer.
func (s *PatientSession) RecordPatientReply(text string) bool {
	if len(s.History) == 0 {
		return false
	}
	last := &s.History[len(s.History)-1]
	if last.Answered() {
		return false
	}
	last.Patient = text
	return true
}

// CompleteInteraction increments the interaction counter and moves the session
// to EXPIRED once the counter reaches ceiling. A ceiling <= 0 never expires.
func (s *PatientSession) CompleteInteraction(ceiling int) SessionState {
	s.Interactions++
	if ceiling > 0 && s.Interactions >= ceiling {
		s.State = SessionStateExpired
	}
	return s.State
}

// AnsweredTurns returns the number of turns with a recorded patient reply
func (s *PatientSession) AnsweredTurns() int {
	count := 0
	for _, turn := range s.History {
		if turn.Answered() {
			count++
		}
	}
	return count
}

// GetHistory returns a copy of the conversation history
func (s *PatientSession) GetHistory() []Turn {
	if len(s.History) == 0 {
		return []Turn{}
	}

	// Return a copy to prevent external modification
	history := make([]Turn, len(s.History))
	copy(history, s.History)
	return history
}

// Clone returns a deep copy of the session
func (s *PatientSession) Clone() *PatientSession {
	clone := *s
	clone.History = s.GetHistory()
	return &clone
}
