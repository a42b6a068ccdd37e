package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Entry is one stored chunk: its embedding, the exact chunk text and a provenance label.
// Entries are immutable once inserted into a store.
type Entry struct {
	id        string
	embedding []float32
	text      string
	section   string
}

// NewEntry validates and builds an entry. The embedding is copied.
func NewEntry(embedding []float32, text, section string) (Entry, error) {
	if len(embedding) == 0 {
		return Entry{}, fmt.Errorf("new entry: %w", ErrEmptyEmbedding)
	}
	if text == "" {
		return Entry{}, fmt.Errorf("new entry: %w", ErrEmptyText)
	}
	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	return Entry{
		id:        uuid.NewString(),
		embedding: vec,
		text:      text,
		section:   section,
	}, nil
}

// ID returns the entry identifier.
func (e Entry) ID() string { return e.id }

// Embedding returns the embedding vector. Callers must not modify it.
func (e Entry) Embedding() []float32 { return e.embedding }

// Dimensions returns the embedding length.
func (e Entry) Dimensions() int { return len(e.embedding) }

// Text returns the chunk text.
func (e Entry) Text() string { return e.text }

// Section returns the provenance label, e.g. a chapter title.
func (e Entry) Section() string { return e.section }
