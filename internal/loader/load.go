// Package loader turns files on disk or uploads into chapter-split documents.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

// Loader reads documents from the filesystem.
type Loader struct{}

// New creates a Loader.
func New() *Loader { return &Loader{} }

// Load reads path and splits it into chapters. PDFs are extracted and cleaned first;
// any other file is read as UTF-8 text.
func (l *Loader) Load(path string) (domain.Document, error) {
	var text string
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		raw, err := ExtractPDF(path)
		if err != nil {
			return domain.Document{}, err
		}
		text = CleanText(raw)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.Document{}, fmt.Errorf("read file: %w", err)
		}
		text = string(data)
	}

	return FromText(filepath.Base(path), text), nil
}

// LoadPDF extracts, cleans and splits a PDF held in memory or in a temp file.
func (l *Loader) LoadPDF(source string, ra io.ReaderAt, size int64) (domain.Document, error) {
	raw, err := ExtractPDFReader(ra, size)
	if err != nil {
		return domain.Document{}, err
	}
	return FromText(source, CleanText(raw)), nil
}

// FromText splits plain text into a document.
func FromText(source, text string) domain.Document {
	return domain.Document{Source: source, Chapters: SplitChapters(text)}
}
