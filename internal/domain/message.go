package domain

import "strings"

// Animation represents the avatar body animation attached to a patient message
type Animation string

const (
	// AnimationTalking - Neutral speech
	AnimationTalking Animation = "Talking"
	// AnimationIdle - No speech
	AnimationIdle Animation = "Idle"
	// AnimationThinking - Recalling information
	AnimationThinking Animation = "Thinking"
	// AnimationPainful - Describing pain
	AnimationPainful Animation = "Painful"
	// AnimationDistressed - Anxiety or distress
	AnimationDistressed Animation = "Distressed"
)

// Animations lists every accepted animation tag
var Animations = []Animation{
	AnimationTalking,
	AnimationIdle,
	AnimationThinking,
	AnimationPainful,
	AnimationDistressed,
}

// Valid reports whether the animation belongs to the fixed set
func (a Animation) Valid() bool {
	for _, known := range Animations {
		if a == known {
			return true
		}
	}
	return false
}

// FacialExpression represents the avatar face attached to a patient message
type FacialExpression string

const (
	// FacialExpressionDefault - Neutral face
	FacialExpressionDefault FacialExpression = "default"
	// FacialExpressionSmile - Smiling
	FacialExpressionSmile FacialExpression = "smile"
	// FacialExpressionSad - Sad
	FacialExpressionSad FacialExpression = "sad"
	// FacialExpressionPainful - Grimacing
	FacialExpressionPainful FacialExpression = "painful"
	// FacialExpressionDistressed - Worried
	FacialExpressionDistressed FacialExpression = "distressed"
	// FacialExpressionThinking - Pensive
	FacialExpressionThinking FacialExpression = "thinking"
)

// FacialExpressions lists every accepted facial expression tag
var FacialExpressions = []FacialExpression{
	FacialExpressionDefault,
	FacialExpressionSmile,
	FacialExpressionSad,
	FacialExpressionPainful,
	FacialExpressionDistressed,
	FacialExpressionThinking,
}

// Valid reports whether the expression belongs to the fixed set
func (f FacialExpression) Valid() bool {
	for _, known := range FacialExpressions {
		if f == known {
			return true
		}
	}
	return false
}

// OutgoingMessage represents one patient message returned to the client.
// Audio stays empty when speech synthesis was skipped or failed.
type OutgoingMessage struct {
	Text             string
	Animation        Animation
	FacialExpression FacialExpression
	Audio            []byte
}

// Normalize substitutes defaults for tags outside the fixed sets
func (m *OutgoingMessage) Normalize() {
	if !m.Animation.Valid() {
		m.Animation = AnimationTalking
	}
	if !m.FacialExpression.Valid() {
		m.FacialExpression = FacialExpressionDefault
	}
}

// PatientReply represents the validated result of one completion call
type PatientReply struct {
	Messages []OutgoingMessage
	Fallback bool
}

// Transcript joins the message texts into the patient utterance recorded in history
func (r PatientReply) Transcript() string {
	texts := make([]string, 0, len(r.Messages))
	for _, msg := range r.Messages {
		texts = append(texts, msg.Text)
	}
	return strings.Join(texts, " ")
}

// FallbackReplyText is returned to the doctor whenever the completion call cannot be used
const FallbackReplyText = "I apologize, but I'm having trouble understanding. Could you please rephrase your question?"

// FallbackReply returns the canned reply used when the completion call fails
func FallbackReply() PatientReply {
	return PatientReply{
		Messages: []OutgoingMessage{
			{
				Text:             FallbackReplyText,
				Animation:        AnimationThinking,
				FacialExpression: FacialExpressionDefault,
			},
		},
		Fallback: true,
	}
}

// PalpationFinding represents the result of a simulated physical examination
type PalpationFinding struct {
	DoctorFinding   string `json:"doctorFinding"`
	PatientResponse string `json:"patientResponse"`
	Fallback        bool   `json:"-"`
}

// FallbackPalpationFinding returns the canned finding used when the completion call fails
func FallbackPalpationFinding() PalpationFinding {
	return PalpationFinding{
		DoctorFinding:   "Unable to assess palpation findings at this time.",
		PatientResponse: "The patient appears uncomfortable but does not provide specific feedback.",
		Fallback:        true,
	}
}

// Default labels used when the one-shot generation call fails
const (
	DefaultDiseaseLabel     = "Common cold"
	DefaultPatientNameLabel = "Sam Johnson"
)
