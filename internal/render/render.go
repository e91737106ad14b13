// Package render formats annotated transcripts for a terminal.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/wordwrap"

	"github.com/book-expert/script-annotator/internal/annotation"
	"github.com/book-expert/script-annotator/internal/transcript"
)

// ANSI style prefixes.
const (
	styleReset  = "\x1b[0m"
	styleBold   = "\x1b[1m"
	styleDim    = "\x1b[2m"
	styleItalic = "\x1b[3m"
	styleCue    = "\x1b[36m"
)

// Section headings.
const (
	headingScript  = "Your Meditation Script"
	headingChapter = "Chapter %d"
)

var cueIcons = map[annotation.Kind]string{
	annotation.Breathing:      "🫁",
	annotation.Pause:          "⏸️",
	annotation.Whisper:        "🤫",
	annotation.SlowSpeech:     "🐌",
	annotation.VerySlowSpeech: "🐌🐌",
	annotation.LowPitch:       "🔉",
	annotation.StrongEmphasis: "💪",
}

// Options configures a Renderer.
type Options struct {
	// Width wraps output at this many columns. Zero disables wrapping.
	Width int
	// Plain disables ANSI styling.
	Plain bool
}

// Renderer turns annotated segments into terminal text.
type Renderer struct {
	opts Options
}

// New returns a Renderer for opts.
func New(opts Options) *Renderer {
	if opts.Width < 0 {
		opts.Width = 0
	}

	return &Renderer{opts: opts}
}

// CueLabel returns the indicator text for a cue segment, e.g. "⏸️ 3s pause".
func CueLabel(segment annotation.Segment) string {
	icon, ok := cueIcons[segment.Kind]
	if !ok {
		return segment.Content
	}

	return icon + " " + segment.Content
}

// RenderLine renders one annotated line without a trailing newline.
func (r *Renderer) RenderLine(segments []annotation.Segment) string {
	var builder strings.Builder

	for _, segment := range segments {
		switch {
		case segment.Kind == annotation.Bold:
			r.writeStyled(&builder, styleBold, segment.Content)
		case segment.Kind == annotation.Italic:
			r.writeStyled(&builder, styleItalic, segment.Content)
		case segment.Kind.IsCue():
			r.writeStyled(&builder, styleCue, "["+CueLabel(segment)+"]")
		case segment.Kind == annotation.PlainText:
			_, _ = builder.WriteString(segment.Content)
		}
	}

	line := builder.String()
	if r.opts.Width > 0 && ansi.PrintableRuneWidth(line) > r.opts.Width {
		return wordwrap.String(line, r.opts.Width)
	}

	return line
}

// RenderDocument writes the script section followed by one section per chapter.
func (r *Renderer) RenderDocument(w io.Writer, document transcript.Document) error {
	out := bufio.NewWriter(w)

	r.writeSection(out, headingScript, document.Lines)

	for _, chapter := range document.Chapters {
		_, _ = out.WriteString("\n")
		r.writeSection(out, fmt.Sprintf(headingChapter, chapter.Number), chapter.Lines)
	}

	err := out.Flush()
	if err != nil {
		return fmt.Errorf("failed to write rendered document: %w", err)
	}

	return nil
}

func (r *Renderer) writeSection(out *bufio.Writer, heading string, lines []transcript.Line) {
	r.writeStyled(out, styleBold, heading)
	_, _ = out.WriteString("\n")

	rule := strings.Repeat("─", ansi.PrintableRuneWidth(heading))
	r.writeStyled(out, styleDim, rule)
	_, _ = out.WriteString("\n")

	for _, line := range lines {
		_, _ = out.WriteString(r.RenderLine(line.Segments))
		_, _ = out.WriteString("\n")
	}
}

func (r *Renderer) writeStyled(out io.StringWriter, style, text string) {
	if r.opts.Plain {
		_, _ = out.WriteString(text)

		return
	}

	_, _ = out.WriteString(style)
	_, _ = out.WriteString(text)
	_, _ = out.WriteString(styleReset)
}
