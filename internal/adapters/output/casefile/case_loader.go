package casefile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"virtual-patient/internal/domain"
	"virtual-patient/internal/ports/output"

	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure FileCaseLoader implements CaseLoader interface
var _ output.CaseLoader = (*FileCaseLoader)(nil)

// FileCaseLoader struct - Output adapter reading the case document from a JSON file.
// The file is read once; later calls return the cached document or error.
type FileCaseLoader struct {
	path string

	once sync.Once
	doc  domain.CaseDocument
	err  error
}

// NewFileCaseLoader creates a loader for the JSON file at path
func NewFileCaseLoader(path string) *FileCaseLoader {
	return &FileCaseLoader{path: path}
}

// Load returns the case document
func (l *FileCaseLoader) Load() (domain.CaseDocument, error) {
	l.once.Do(func() {
		l.doc, l.err = l.read()
	})
	return l.doc, l.err
}

func (l *FileCaseLoader) read() (domain.CaseDocument, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.CaseDocument{}, fmt.Errorf("%w: %s", domain.ErrCaseNotFound, l.path)
		}
		return domain.CaseDocument{}, fmt.Errorf("%w: %s: %v", domain.ErrCaseNotFound, l.path, err)
	}

	doc, err := domain.NewCaseDocument(raw)
	if err != nil {
		return domain.CaseDocument{}, fmt.Errorf("%w: %s", err, l.path)
	}

	logrus.Infof("Loaded case document from %s (%d bytes)", l.path, len(raw))
	return doc, nil
}
