package worker

import "github.com/book-expert/events"

// AnnotationRequestedEvent asks the worker to annotate a stored transcript.
type AnnotationRequestedEvent struct {
	Header        events.EventHeader `json:"header"`
	TranscriptKey string             `json:"transcript_key"`
	ChapterKeys   []string           `json:"chapter_keys,omitempty"`
	MarkerStyle   string             `json:"marker_style,omitempty"`
}

// AnnotationCompletedEvent is the reply once the annotated document is stored.
type AnnotationCompletedEvent struct {
	Header       events.EventHeader `json:"header"`
	DocumentKey  string             `json:"document_key"`
	LineCount    int                `json:"line_count"`
	ChapterCount int                `json:"chapter_count"`
}
