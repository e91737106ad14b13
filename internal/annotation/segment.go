package annotation

// Kind classifies a parsed segment.
type Kind uint8

const (
	// PlainText is literal text between markup tokens.
	PlainText Kind = iota
	// Bold is a **...** span.
	Bold
	// Italic is a *...* span.
	Italic
	// Breathing is an [inhale] or [exhale] cue.
	Breathing
	// Pause is a bracketed pause or an SSML break.
	Pause
	// Whisper is a [whisper] cue.
	Whisper
	// SlowSpeech is an SSML prosody tag with rate="slow".
	SlowSpeech
	// VerySlowSpeech is an SSML prosody tag with rate="x-slow".
	VerySlowSpeech
	// LowPitch is an SSML prosody tag with pitch="low".
	LowPitch
	// StrongEmphasis is an SSML emphasis tag with level="strong".
	StrongEmphasis
	// Dropped is a recognised tag token that produces no output.
	Dropped
)

var kindNames = [...]string{
	PlainText:      "PlainText",
	Bold:           "Bold",
	Italic:         "Italic",
	Breathing:      "Breathing",
	Pause:          "Pause",
	Whisper:        "Whisper",
	SlowSpeech:     "SlowSpeech",
	VerySlowSpeech: "VerySlowSpeech",
	LowPitch:       "LowPitch",
	StrongEmphasis: "StrongEmphasis",
	Dropped:        "Dropped",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Unknown"
}

// IsCue reports whether the kind is a voice-direction cue rather than text.
func (k Kind) IsCue() bool {
	switch k {
	case Breathing, Pause, Whisper, SlowSpeech, VerySlowSpeech, LowPitch, StrongEmphasis:
		return true
	case PlainText, Bold, Italic, Dropped:
		return false
	default:
		return false
	}
}

// MarshalText encodes the kind by name so stored documents stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	name := string(text)
	for i, candidate := range kindNames {
		if candidate == name {
			*k = Kind(i)

			return nil
		}
	}

	return newUnknownKindError(name)
}

// Segment is one classified unit of an annotated line.
//
// Content holds the inner text for PlainText, Bold and Italic, and a
// display label such as "Inhale" or "3s pause" for cues. Raw is the exact
// substring of the input the token consumed.
type Segment struct {
	Kind    Kind   `json:"kind"`
	Content string `json:"content"`
	Raw     string `json:"raw,omitempty"`
}
