package domain

import (
	"bytes"
	"encoding/json"
)

// CaseDocument represents the static medical case data the patient is grounded in.
// The document is read once and never mutated by a session.
type CaseDocument struct {
	raw []byte
}

// NewCaseDocument validates raw as a JSON object and wraps it
func NewCaseDocument(raw []byte) (CaseDocument, error) {
	trimmed := bytes.TrimSpace(raw)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return CaseDocument{}, ErrCaseMalformed
	}
	if len(fields) == 0 {
		return CaseDocument{}, ErrCaseMalformed
	}

	doc := make([]byte, len(trimmed))
	copy(doc, trimmed)
	return CaseDocument{raw: doc}, nil
}

// IsZero reports whether the document was never loaded
func (c CaseDocument) IsZero() bool {
	return len(c.raw) == 0
}

// Raw returns a copy of the document bytes as read from storage
func (c CaseDocument) Raw() []byte {
	out := make([]byte, len(c.raw))
	copy(out, c.raw)
	return out
}

// Pretty returns the document indented with two spaces for prompt embedding
func (c CaseDocument) Pretty() string {
	if c.IsZero() {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, c.raw, "", "  "); err != nil {
		return string(c.raw)
	}
	return buf.String()
}
