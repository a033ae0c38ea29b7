package output

import "virtual-patient/internal/domain"

// CaseLoader interface - Output port
// Supplies the static case document used to ground the simulated patient.
type CaseLoader interface {
	// Load returns the case document. Implementations read storage at most once
	// and return the same value for the lifetime of the process.
	Load() (domain.CaseDocument, error)
}
