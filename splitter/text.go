package splitter

import (
	"strings"
	"unicode"
)

// Text is a normalized Markdown document viewed as code points. Every offset produced by this
// package indexes into a Text. Each invalid UTF-8 byte of the source becomes one U+FFFD code
// point, so offsets of a non-UTF-8 input do not map back to its bytes.
type Text []rune

// Segment is a half-open [Start, End) interval of a Text.
type Segment struct {
	Start int
	End   int
}

// textLine is one line of a Text, End excluding the newline.
type textLine struct {
	start int
	end   int
}

// Normalize converts CRLF line endings to LF.
func Normalize(markdown string) string {
	return strings.ReplaceAll(markdown, "\r\n", "\n")
}

// NewText normalizes markdown and returns its code point view. Invalid UTF-8 bytes are
// replaced with U+FFFD.
func NewText(markdown string) Text {
	return Text(Normalize(markdown))
}

// Len returns the number of code points in t.
func (t Text) Len() int {
	return len(t)
}

// Slice returns the text of [start, end) clamped to the bounds of t.
func (t Text) Slice(start, end int) string {
	start = max(0, min(start, len(t)))
	end = max(start, min(end, len(t)))
	return string(t[start:end])
}

// IsBlank reports whether t holds only whitespace.
func (t Text) IsBlank() bool {
	for _, r := range t {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// lines splits t on '\n'. A trailing newline yields a final empty line.
func (t Text) lines() []textLine {
	var out []textLine
	start := 0
	for i, r := range t {
		if r == '\n' {
			out = append(out, textLine{start: start, end: i})
			start = i + 1
		}
	}
	return append(out, textLine{start: start, end: len(t)})
}

func (t Text) lineText(l textLine) string {
	return string(t[l.start:l.end])
}

// Len returns the number of code points covered by s.
func (s Segment) Len() int {
	return s.End - s.Start
}

// Contains reports whether pos lies in [Start, End).
func (s Segment) Contains(pos int) bool {
	return pos >= s.Start && pos < s.End
}
