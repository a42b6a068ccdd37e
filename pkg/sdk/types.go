package bookrag

import (
	"time"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

// PipelineConfig holds chunking and retrieval tuning.
type PipelineConfig = domain.PipelineConfig

// DefaultPipelineConfig returns the defaults: 700-token chunks with 100 tokens
// of overlap, 200..8000 character chunks, top 6 results, 0.85 diversity threshold.
func DefaultPipelineConfig() PipelineConfig {
	return domain.DefaultPipelineConfig()
}

// Chapter is one titled section of a document.
type Chapter struct {
	Title   string
	Content string
}

// Document is plain text split into chapters.
type Document struct {
	Source   string
	Chapters []Chapter
}

func (d Document) toDomain() domain.Document {
	chapters := make([]domain.Chapter, len(d.Chapters))
	for i, ch := range d.Chapters {
		chapters[i] = domain.Chapter{Title: ch.Title, Content: ch.Content}
	}
	return domain.Document{Source: d.Source, Chapters: chapters}
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Source   string
	Chunks   int
	Indexed  int
	Filtered int
	Skipped  int
	Duration time.Duration
}

// Passage is a retrieved chunk and the chapter it came from.
type Passage struct {
	Text    string
	Section string
}

// Answer is a generated response with the passages it was grounded on.
type Answer struct {
	Text    string
	Context []string
}
