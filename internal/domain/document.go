package domain

// Chapter is one logical unit of an extracted document.
type Chapter struct {
	Title   string
	Content string
}

// Document is extracted plain text already split into chapters.
type Document struct {
	Source   string
	Chapters []Chapter
}
