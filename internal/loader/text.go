package loader

import (
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

// minLineChars is the length a line must exceed to survive CleanText.
// Extracted PDFs carry page numbers, running heads and figure labels on short lines.
const minLineChars = 30

const defaultChapterTitle = "Chapter"

// CleanText drops short lines and rejoins words hyphenated across line breaks.
func CleanText(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSuffix(l, "\r")
		if utf8.RuneCountInString(l) > minLineChars {
			kept = append(kept, l)
		}
	}
	return strings.ReplaceAll(strings.Join(kept, "\n"), "-\n", "")
}

// SplitChapters starts a new chapter at every line beginning with "CHAPTER " or "Chapter ".
// Text before the first heading goes to a chapter titled "Chapter". Chapters without
// content are dropped.
func SplitChapters(text string) []domain.Chapter {
	var chapters []domain.Chapter
	var current strings.Builder
	title := defaultChapterTitle

	flush := func() {
		if current.Len() > 0 {
			chapters = append(chapters, domain.Chapter{Title: title, Content: current.String()})
			current.Reset()
		}
	}

	for line := range strings.Lines(text) {
		line = strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(line, "CHAPTER ") || strings.HasPrefix(line, "Chapter ") {
			flush()
			title = line
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()

	return chapters
}
