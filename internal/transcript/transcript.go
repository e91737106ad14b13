// Package transcript annotates whole generated scripts line by line and
// splits them into chapters.
package transcript

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/book-expert/script-annotator/internal/annotation"
)

const chapterRegexPattern = `(?s)\[CHAPTER_(\d+)_START\](.*?)\[CHAPTER_\d+_END\]`

var chapterPattern = regexp.MustCompile(chapterRegexPattern)

// Line is one annotated source line. Number is 1-based.
type Line struct {
	Number   int                  `json:"number"`
	Segments []annotation.Segment `json:"segments"`
}

// Chapter is a chapter body extracted from a tagged script.
type Chapter struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// ChapterDocument holds the annotated lines of one chapter.
type ChapterDocument struct {
	Number int    `json:"number"`
	Lines  []Line `json:"lines"`
}

// Document is a fully annotated transcript with its chapters.
type Document struct {
	Lines    []Line            `json:"lines"`
	Chapters []ChapterDocument `json:"chapters"`
}

// LineCount returns the number of annotated script lines.
func (d Document) LineCount() int {
	return len(d.Lines)
}

// Annotate splits text into lines, runs each non-blank line through filters
// in order and parses the survivors. Lines that parse to nothing are omitted.
func Annotate(text string, filters ...LineFilter) []Line {
	var lines []Line

	for index, raw := range strings.Split(text, "\n") {
		line := strings.TrimSuffix(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		line, keep := applyFilters(line, filters)
		if !keep {
			continue
		}

		segments := annotation.Parse(line)
		if len(segments) == 0 {
			continue
		}

		lines = append(lines, Line{Number: index + 1, Segments: segments})
	}

	return lines
}

func applyFilters(line string, filters []LineFilter) (string, bool) {
	for _, filter := range filters {
		var keep bool

		line, keep = filter.Filter(line)
		if !keep {
			return "", false
		}
	}

	return line, true
}

// ParseChapters extracts [CHAPTER_n_START]...[CHAPTER_m_END] bodies in
// document order. Bodies are trimmed.
func ParseChapters(text string) []Chapter {
	matches := chapterPattern.FindAllStringSubmatch(text, -1)
	chapters := make([]Chapter, 0, len(matches))

	for _, match := range matches {
		number, err := strconv.Atoi(match[1])
		if err != nil {
			number = len(chapters) + 1
		}

		chapters = append(chapters, Chapter{Number: number, Text: strings.TrimSpace(match[2])})
	}

	return chapters
}

// Build annotates the full script with filters and each chapter body.
// Chapter numbers follow the position in chapters, starting at 1.
func Build(fullText string, chapters []string, filters ...LineFilter) Document {
	document := Document{
		Lines:    Annotate(fullText, filters...),
		Chapters: make([]ChapterDocument, 0, len(chapters)),
	}

	for index, body := range chapters {
		document.Chapters = append(document.Chapters, ChapterDocument{
			Number: index + 1,
			Lines:  Annotate(body),
		})
	}

	return document
}
