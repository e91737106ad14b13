// Package annotation turns one line of annotated transcript text into an
// ordered sequence of display segments.
//
// The markup is a mix of markdown emphasis (**bold**, *italic*), bracketed
// voice directions ([inhale], [pause 3 seconds]) and SSML-style tags
// (<break time="2s"/>, <prosody rate="slow">). Parsing is total: anything
// that is not recognised degrades to plain text or is dropped.
package annotation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnknownKind is returned when decoding a kind name that does not exist.
var ErrUnknownKind = errors.New("unknown segment kind")

func newUnknownKindError(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Regex patterns for tokenizing and classifying markup.
//
// The token pattern is a single alternation scanned left to right. Bold
// must come before italic since ** also matches the italic delimiter.
const (
	tokenRegexPattern        = `\*\*(.*?)\*\*|\*(.*?)\*|\[([^\]]*)\]|(<[^>]*>)`
	bracketPauseRegexPattern = `^pause\s*(\d+)`
	breakTimeRegexPattern    = `time="(\d+)s"`
)

// Submatch group positions within tokenRegexPattern.
const (
	groupBold    = 1
	groupItalic  = 2
	groupBracket = 3
	groupAngle   = 4
)

// Bracket tag vocabulary, compared after lowercasing.
const (
	bracketInhale  = "inhale"
	bracketExhale  = "exhale"
	bracketWhisper = "whisper"
	bracketPause   = "pause"
)

// Angle tag fragments, compared case-sensitively on the raw tag.
const (
	angleBreakTime      = "break time="
	angleProsody        = "prosody"
	angleRateSlow       = `rate="slow"`
	angleRateExtraSlow  = `rate="x-slow"`
	anglePitchLow       = `pitch="low"`
	angleEmphasisStrong = `emphasis level="strong"`
)

// Display labels for cue segments.
const (
	labelInhale         = "Inhale"
	labelExhale         = "Exhale"
	labelWhisper        = "Whisper"
	labelSlow           = "Slow"
	labelVerySlow       = "Very Slow"
	labelLowPitch       = "Low Pitch"
	labelStrong         = "Strong"
	pauseLabelFormat    = "%ss pause"
	defaultPauseSeconds = "2"
)

// Parser holds the compiled patterns used to tokenize annotated lines.
// A Parser is read-only after construction and safe for concurrent use.
type Parser struct {
	tokenPattern        *regexp.Regexp
	bracketPausePattern *regexp.Regexp
	breakTimePattern    *regexp.Regexp
}

// NewParser compiles the markup patterns.
func NewParser() *Parser {
	return &Parser{
		tokenPattern:        regexp.MustCompile(tokenRegexPattern),
		bracketPausePattern: regexp.MustCompile(bracketPauseRegexPattern),
		breakTimePattern:    regexp.MustCompile(breakTimeRegexPattern),
	}
}

var defaultParser = NewParser()

// Parse classifies line using the package default parser.
func Parse(line string) []Segment {
	return defaultParser.Parse(line)
}

// Tokenize splits line using the package default parser without filtering.
func Tokenize(line string) []Segment {
	return defaultParser.Tokenize(line)
}

// Parse returns the visible segments of line in input order. Dropped tags
// and whitespace-only text runs are removed. An empty or blank line yields
// an empty sequence.
func (p *Parser) Parse(line string) []Segment {
	tokens := p.Tokenize(line)

	segments := make([]Segment, 0, len(tokens))

	for _, token := range tokens {
		if !visible(token) {
			continue
		}

		segments = append(segments, token)
	}

	return segments
}

// Tokenize partitions line into consecutive tokens. Every byte of line
// belongs to exactly one token, so concatenating Raw over the result
// reproduces the input.
func (p *Parser) Tokenize(line string) []Segment {
	if line == "" {
		return nil
	}

	matches := p.tokenPattern.FindAllStringSubmatchIndex(line, -1)
	tokens := make([]Segment, 0, 2*len(matches)+1)
	cursor := 0

	for _, match := range matches {
		start, end := match[0], match[1]
		if start > cursor {
			tokens = append(tokens, plainSegment(line[cursor:start]))
		}

		tokens = append(tokens, p.classifyMatch(line, match))
		cursor = end
	}

	if cursor < len(line) {
		tokens = append(tokens, plainSegment(line[cursor:]))
	}

	return tokens
}

// classifyMatch builds the segment for one token match based on which
// alternation group participated.
func (p *Parser) classifyMatch(line string, match []int) Segment {
	raw := line[match[0]:match[1]]

	switch {
	case groupMatched(match, groupBold):
		return Segment{Kind: Bold, Content: groupText(line, match, groupBold), Raw: raw}
	case groupMatched(match, groupItalic):
		return Segment{Kind: Italic, Content: groupText(line, match, groupItalic), Raw: raw}
	case groupMatched(match, groupBracket):
		segment := p.classifyBracket(groupText(line, match, groupBracket))
		segment.Raw = raw

		return segment
	case groupMatched(match, groupAngle):
		segment := p.classifyAngle(raw)
		segment.Raw = raw

		return segment
	default:
		return plainSegment(raw)
	}
}

// classifyBracket maps a [voice direction] to its cue. Surrounding spaces
// are significant, so [ inhale ] is not a cue.
func (p *Parser) classifyBracket(content string) Segment {
	tag := strings.ToLower(content)

	switch {
	case tag == bracketInhale:
		return Segment{Kind: Breathing, Content: labelInhale}
	case tag == bracketExhale:
		return Segment{Kind: Breathing, Content: labelExhale}
	case tag == bracketWhisper:
		return Segment{Kind: Whisper, Content: labelWhisper}
	case strings.HasPrefix(tag, bracketPause):
		return pauseSegment(p.submatchOr(p.bracketPausePattern, tag))
	default:
		return Segment{Kind: Dropped}
	}
}

// classifyAngle maps an SSML-style tag to its cue. Checks run on the raw
// tag text and are case-sensitive. A break without a time attribute, such as
// the bare <break> section marker, is dropped.
func (p *Parser) classifyAngle(tag string) Segment {
	if strings.Contains(tag, angleBreakTime) {
		return pauseSegment(p.submatchOr(p.breakTimePattern, tag))
	}

	if strings.Contains(tag, angleProsody) {
		switch {
		case strings.Contains(tag, angleRateSlow):
			return Segment{Kind: SlowSpeech, Content: labelSlow}
		case strings.Contains(tag, angleRateExtraSlow):
			return Segment{Kind: VerySlowSpeech, Content: labelVerySlow}
		case strings.Contains(tag, anglePitchLow):
			return Segment{Kind: LowPitch, Content: labelLowPitch}
		}
	}

	if strings.Contains(tag, angleEmphasisStrong) {
		return Segment{Kind: StrongEmphasis, Content: labelStrong}
	}

	return Segment{Kind: Dropped}
}

// submatchOr returns the first capture of pattern in text, or the default
// pause length when the pattern does not match.
func (p *Parser) submatchOr(pattern *regexp.Regexp, text string) string {
	found := pattern.FindStringSubmatch(text)
	if len(found) < 2 || found[1] == "" {
		return defaultPauseSeconds
	}

	return found[1]
}

func pauseSegment(seconds string) Segment {
	return Segment{Kind: Pause, Content: fmt.Sprintf(pauseLabelFormat, seconds)}
}

func plainSegment(text string) Segment {
	return Segment{Kind: PlainText, Content: text, Raw: text}
}

func groupMatched(match []int, group int) bool {
	return match[2*group] >= 0
}

func groupText(line string, match []int, group int) string {
	return line[match[2*group]:match[2*group+1]]
}

func visible(segment Segment) bool {
	switch segment.Kind {
	case Dropped:
		return false
	case PlainText:
		return strings.TrimSpace(segment.Content) != ""
	default:
		return true
	}
}
