// Package chunk splits chapter text into token-bounded, overlapping chunks for embedding.
package chunk

import (
	"math"
	"strings"
)

// paragraphSep separates paragraphs in input text and in assembled chunks.
const paragraphSep = "\n\n"

// wordsPerToken is the heuristic ratio used by EstimateTokens.
const wordsPerToken float32 = 0.75

// EstimateTokens approximates the token count of s as ceil(words / 0.75).
// Chunk boundaries depend on this exact formula.
func EstimateTokens(s string) int {
	words := len(strings.Fields(s))
	return int(math.Ceil(float64(float32(words) / wordsPerToken)))
}

// Segment splits text on blank lines and packs paragraphs into chunks of at most
// maxTokens estimated tokens. Each chunk after a split starts with trailing paragraphs
// of the previous chunk worth at most overlapTokens. The overlap is always kept, so a
// chunk seeded with it may reach maxTokens+overlapTokens. A paragraph larger than
// maxTokens is emitted on its own as word windows of maxTokens words overlapping by
// overlapTokens words.
func Segment(text string, maxTokens, overlapTokens int) []string {
	if maxTokens <= 0 {
		return nil
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}

	var (
		chunks        []string
		current       []string
		currentTokens int
	)

	for _, para := range paragraphs(text) {
		paraTokens := EstimateTokens(para)

		if paraTokens > maxTokens {
			chunks = append(chunks, hardSplit(para, maxTokens, overlapTokens)...)
			continue
		}

		if currentTokens+paraTokens > maxTokens && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, paragraphSep))

			current = buildOverlap(current, overlapTokens)
			currentTokens = EstimateTokens(strings.Join(current, " "))
		}

		current = append(current, para)
		currentTokens += paraTokens
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, paragraphSep))
	}

	return chunks
}

// paragraphs returns trimmed, non-empty blank-line separated paragraphs.
func paragraphs(text string) []string {
	parts := strings.Split(text, paragraphSep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// buildOverlap takes paragraphs from the end of previous while their combined
// estimate stays within overlapTokens, preserving original order.
func buildOverlap(previous []string, overlapTokens int) []string {
	var (
		start  = len(previous)
		tokens int
	)
	for i := len(previous) - 1; i >= 0; i-- {
		t := EstimateTokens(previous[i])
		if tokens+t > overlapTokens {
			break
		}
		tokens += t
		start = i
	}

	overlap := make([]string, len(previous)-start)
	copy(overlap, previous[start:])
	return overlap
}

// hardSplit cuts an oversized paragraph into windows of maxTokens words.
// Window starts advance by maxTokens-overlapTokens, or by maxTokens when that is not positive.
// The window that reaches the last word is the final one.
func hardSplit(para string, maxTokens, overlapTokens int) []string {
	words := strings.Fields(para)

	step := maxTokens - overlapTokens
	if step <= 0 {
		step = maxTokens
	}

	var windows []string
	for start := 0; start < len(words); start += step {
		end := min(start+maxTokens, len(words))
		windows = append(windows, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return windows
}
