package application

import (
	"fmt"
	"strings"

	"virtual-patient/internal/domain"
)

// PersonaStyle selects the register the simulated patient speaks in
type PersonaStyle string

const (
	// PersonaStyleConversational - Casual, in-character patient
	PersonaStyleConversational PersonaStyle = "conversational"
	// PersonaStyleClinical - Terse answers focused on medical facts
	PersonaStyleClinical PersonaStyle = "clinical"
)

// ParsePersonaStyle maps a configuration value to a style, defaulting to conversational
func ParsePersonaStyle(value string) PersonaStyle {
	switch PersonaStyle(strings.ToLower(strings.TrimSpace(value))) {
	case PersonaStyleClinical:
		return PersonaStyleClinical
	default:
		return PersonaStyleConversational
	}
}

func (p PersonaStyle) guidance() string {
	if p == PersonaStyleClinical {
		return `- Answer briefly and factually, the way a cooperative patient answers a structured medical interview
- Stick to symptoms, timing, severity and history; skip small talk`
	}
	return `- Speak casually, in the first person, the way a real patient talks to their doctor
- Show your feelings about your symptoms; it is fine to be worried, tired or in pain`
}

// renderHistory renders answered turns as alternating doctor/patient lines.
// A trailing turn still waiting for its answer is the current question and is rendered separately.
func renderHistory(history []domain.Turn) string {
	lines := make([]string, 0, len(history))
	for i, turn := range history {
		if i == len(history)-1 && !turn.Answered() {
			break
		}
		lines = append(lines, fmt.Sprintf("Doctor: %s\nPatient: %s", turn.Doctor, turn.Patient))
	}
	if len(lines) == 0 {
		return "(no previous conversation)"
	}
	return strings.Join(lines, "\n")
}

func joinAnimations() string {
	names := make([]string, len(domain.Animations))
	for i, a := range domain.Animations {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

func joinExpressions() string {
	names := make([]string, len(domain.FacialExpressions))
	for i, f := range domain.FacialExpressions {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// BuildConversationPrompt composes the system instruction for a general question.
// It is a pure function of its inputs.
func BuildConversationPrompt(session *domain.PatientSession, caseDoc domain.CaseDocument, latestMessage string, style PersonaStyle) string {
	var b strings.Builder

	b.WriteString("You are a virtual patient simulation based on the following medical case data:\n")
	b.WriteString(caseDoc.Pretty())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Your name is %s. Your underlying condition is %s.\n", session.PatientName, session.Disease)
	b.WriteString(`Use the case data as the foundation for your responses. You should:
- Be consistent with any information present in the case data
- If the case data disagrees with your condition, follow the case data
- For any information not explicitly provided, give reasonable answers typical for a patient with similar characteristics
- Maintain consistency in your responses throughout the conversation

IMPORTANT RULES:
- Stay in character as the patient at all times
- Do not contradict any earlier responses or the case data
- Never provide a diagnosis, only describe symptoms and experiences
- Do not reveal that you are a virtual simulation
- Keep your answers realistic and medically appropriate
`)
	b.WriteString(style.guidance())
	b.WriteString(`
- Pick the animation and facial expression that match the emotional content of your answer:
  "Painful"/"painful" for pain descriptions, "Distressed"/"distressed" for anxiety or distress,
  "Thinking"/"thinking" when recalling information, "Talking"/"default" for neutral answers

Previous conversation:
`)
	b.WriteString(renderHistory(session.History))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Current doctor's question: %s\n\n", latestMessage)

	b.WriteString(`Your response MUST be in this exact JSON format:
{
  "messages": [
    {
      "text": "Your response text here",
      "animation": "ANIMATION_TYPE",
      "facialExpression": "EXPRESSION_TYPE"
    }
  ]
}

Where:
`)
	fmt.Fprintf(&b, "- ANIMATION_TYPE is one of: %s\n", joinAnimations())
	fmt.Fprintf(&b, "- EXPRESSION_TYPE is one of: %s\n", joinExpressions())
	b.WriteString("- \"messages\" contains one or more messages, each with non-empty text\n")

	return b.String()
}

// BuildPalpationPrompt composes the system instruction for a targeted palpation of region.
// It is a pure function of its inputs.
func BuildPalpationPrompt(caseDoc domain.CaseDocument, region string) string {
	var b strings.Builder

	b.WriteString("You are a clinical reasoning assistant simulating realistic palpation findings.\n\n")
	b.WriteString("Analyze the following case data:\n")
	b.WriteString(caseDoc.Pretty())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "The doctor palpates the %s region. Describe:\n", region)
	b.WriteString(`1. What the doctor physically detects in that region:
   - Tenderness, guarding, rigidity, masses or abnormal pulsations
   - Skin temperature and moisture
   - Relationship to the patient's presenting symptoms
2. How the patient responds:
   - Pain characteristics and severity, radiation or referral
   - Verbal reaction and physical behaviour (wincing, withdrawing, sweating)

Rules:
- Be concise, clinical and medically accurate
- Findings must be consistent with the diagnosis, symptoms and vitals in the case
- Do not invent unrelated symptoms or pathology
- If the region is not clinically relevant to the patient's condition, report normal findings
  and a calm patient reaction

Your response MUST be a JSON object with exactly these two string fields:
{
  "doctorFinding": "Detailed physical examination findings",
  "patientResponse": "What the patient verbally says or physically does"
}
`)
	return b.String()
}

// PalpationUserMessage is the user turn paired with BuildPalpationPrompt
func PalpationUserMessage(region string) string {
	return fmt.Sprintf("Based on the case data provided, describe the palpation findings for the %s region, "+
		"reflecting the severity and nature of the patient's condition.", region)
}

// DiseaseLabelInstruction asks for a single random disease name
func DiseaseLabelInstruction() string {
	return "Name one random, common medical condition a primary care doctor could diagnose " +
		"from history and physical examination. Respond with only the condition name, no additional text."
}

// PatientNameInstruction asks for a single random patient name
func PatientNameInstruction() string {
	return "Invent one realistic full name (first and last) for a patient. " +
		"Respond with only the name, no additional text."
}
