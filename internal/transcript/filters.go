package transcript

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnknownMarkerStyle is returned for a marker style name that is not supported.
var ErrUnknownMarkerStyle = errors.New("unknown marker style")

// LineFilter rewrites or discards one transcript line before it is parsed.
type LineFilter interface {
	Filter(line string) (string, bool)
}

// LineFilterFunc adapts a function to the LineFilter interface.
type LineFilterFunc func(line string) (string, bool)

// Filter calls f(line).
func (f LineFilterFunc) Filter(line string) (string, bool) {
	return f(line)
}

const (
	chapterMarkerRegexPattern = `\[CHAPTER_\d+_(?:START|END)\]`
	breakLineMarker           = "<break>"
)

// ChapterMarkerFilter removes [CHAPTER_n_START] and [CHAPTER_n_END] markers.
// A line left blank by the removal is discarded.
type ChapterMarkerFilter struct {
	pattern *regexp.Regexp
}

// NewChapterMarkerFilter compiles the chapter marker pattern.
func NewChapterMarkerFilter() *ChapterMarkerFilter {
	return &ChapterMarkerFilter{pattern: regexp.MustCompile(chapterMarkerRegexPattern)}
}

// Filter implements LineFilter.
func (f *ChapterMarkerFilter) Filter(line string) (string, bool) {
	if !f.pattern.MatchString(line) {
		return line, true
	}

	stripped := f.pattern.ReplaceAllString(line, "")
	if strings.TrimSpace(stripped) == "" {
		return "", false
	}

	return stripped, true
}

// BreakLineFilter discards any line that carries the literal <break> marker.
type BreakLineFilter struct{}

// Filter implements LineFilter.
func (BreakLineFilter) Filter(line string) (string, bool) {
	if strings.Contains(line, breakLineMarker) {
		return "", false
	}

	return line, true
}

// MarkerStyle names a structural marker convention used by a transcript source.
type MarkerStyle string

const (
	// MarkerStyleChapterTags strips [CHAPTER_n_START]/[CHAPTER_n_END] markers.
	MarkerStyleChapterTags MarkerStyle = "chapter-tags"
	// MarkerStyleBreakLines drops lines containing a bare <break> marker.
	MarkerStyleBreakLines MarkerStyle = "break-lines"
	// MarkerStyleNone applies no pre-processing.
	MarkerStyleNone MarkerStyle = "none"
)

// ParseMarkerStyle validates a marker style name. An empty name selects
// MarkerStyleChapterTags.
func ParseMarkerStyle(name string) (MarkerStyle, error) {
	style := MarkerStyle(strings.ToLower(strings.TrimSpace(name)))

	switch style {
	case "":
		return MarkerStyleChapterTags, nil
	case MarkerStyleChapterTags, MarkerStyleBreakLines, MarkerStyleNone:
		return style, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMarkerStyle, name)
	}
}

// FiltersFor returns the filter chain for style.
func FiltersFor(style MarkerStyle) []LineFilter {
	switch style {
	case MarkerStyleChapterTags:
		return []LineFilter{NewChapterMarkerFilter()}
	case MarkerStyleBreakLines:
		return []LineFilter{BreakLineFilter{}}
	case MarkerStyleNone:
		return nil
	default:
		return nil
	}
}
