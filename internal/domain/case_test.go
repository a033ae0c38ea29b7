package domain

import (
	"errors"
	"strings"
	"testing"
)

// TestNewCaseDocumentAcceptsObject tests loading a well-formed case
func TestNewCaseDocumentAcceptsObject(t *testing.T) {
	doc, err := NewCaseDocument([]byte(`{"demographics":{"age":54},"symptoms":["chest pain"]}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	pretty := doc.Pretty()
	if !strings.Contains(pretty, "\n  \"demographics\": {\n    \"age\": 54\n  }") {
		t.Errorf("expected two-space indented document, got:\n%s", pretty)
	}
}

// TestNewCaseDocumentRejectsMalformedInput tests malformed and empty documents
func TestNewCaseDocumentRejectsMalformedInput(t *testing.T) {
	inputs := []string{"", "not json", "[1,2,3]", "{}", `"text"`}

	for _, input := range inputs {
		_, err := NewCaseDocument([]byte(input))
		if !errors.Is(err, ErrCaseMalformed) {
			t.Errorf("expected ErrCaseMalformed for %q, got %v", input, err)
		}
	}
}

// TestCaseDocumentRawIsCopy tests that callers cannot mutate the loaded document
func TestCaseDocumentRawIsCopy(t *testing.T) {
	doc, err := NewCaseDocument([]byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	raw := doc.Raw()
	raw[0] = 'X'

	if doc.Raw()[0] != '{' {
		t.Error("expected document to be unchanged")
	}
}
