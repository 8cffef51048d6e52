package prompt

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Geometry is the screen footprint of a parsed prompt.
type Geometry struct {
	Width         int // widest line, in display columns
	Height        int // total line count after wrapping
	LastLineWidth int // display width of the final line; the column where command text starts
}

// Line is one produced prompt line with its display width precomputed.
type Line struct {
	Text  string // original text including any escape sequences
	Width int    // display width excluding escape sequences
}

// Prompt is a parsed prompt string. Lines and Geometry are derived from Text;
// callers must re-invoke Parse after changing the prompt text.
type Prompt struct {
	Text     string
	Lines    []Line
	Geometry Geometry
	HasANSI  bool
}

// Parse splits the prompt on explicit newlines, then wraps any line whose
// display width (excluding ANSI escapes and readline \x01/\x02 markers)
// exceeds termWidth. A termWidth of zero or less disables wrapping.
func Parse(text string, termWidth int) *Prompt {
	p := &Prompt{
		Text:    text,
		HasANSI: strings.ContainsRune(text, 0x1b),
	}
	for _, raw := range strings.Split(text, "\n") {
		p.Lines = append(p.Lines, wrapLine(raw, termWidth)...)
	}
	for _, line := range p.Lines {
		if line.Width > p.Geometry.Width {
			p.Geometry.Width = line.Width
		}
	}
	p.Geometry.Height = len(p.Lines)
	if n := len(p.Lines); n > 0 {
		p.Geometry.LastLineWidth = p.Lines[n-1].Width
	}
	return p
}

// wrapLine splits raw into screen lines no wider than termWidth. Escape
// sequences travel with the grapheme they precede and never count toward
// width.
func wrapLine(raw string, termWidth int) []Line {
	if termWidth <= 0 || Width(raw) <= termWidth {
		return []Line{{Text: raw, Width: Width(raw)}}
	}
	var lines []Line
	var cur strings.Builder
	width := 0
	rest := raw
	for len(rest) > 0 {
		if n := EscapeLen(rest); n > 0 {
			cur.WriteString(rest[:n])
			rest = rest[n:]
			continue
		}
		cluster, tail, _, _ := uniseg.FirstGraphemeClusterInString(rest, -1)
		w := clusterWidth(cluster)
		if width+w > termWidth && width > 0 {
			lines = append(lines, Line{Text: cur.String(), Width: width})
			cur.Reset()
			width = 0
		}
		cur.WriteString(cluster)
		width += w
		rest = tail
	}
	lines = append(lines, Line{Text: cur.String(), Width: width})
	return lines
}

// Width returns the display width of s with escape sequences removed.
func Width(s string) int {
	total := 0
	rest := StripEscapes(s)
	for len(rest) > 0 {
		cluster, tail, _, _ := uniseg.FirstGraphemeClusterInString(rest, -1)
		total += clusterWidth(cluster)
		rest = tail
	}
	return total
}

// clusterWidth is the terminal column count of one grapheme cluster: the
// width of its base codepoint (0 for combining marks, 2 for wide CJK and
// emoji).
func clusterWidth(cluster string) int {
	base, _ := utf8.DecodeRuneInString(cluster)
	return runewidth.RuneWidth(base)
}

// StripEscapes removes ANSI escape sequences and the readline-style \x01/\x02
// invisible-region markers. Malformed or unterminated sequences are consumed
// silently rather than rejected.
func StripEscapes(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		switch s[i] {
		case 0x01, 0x02:
			i++
		case 0x1b:
			i += EscapeLen(s[i:])
		default:
			sb.WriteByte(s[i])
			i++
		}
	}
	return sb.String()
}

// EscapeLen returns the byte length of the escape sequence or marker at the
// start of s, or 0 if s does not start with one. An unterminated sequence
// consumes the rest of the string.
func EscapeLen(s string) int {
	if len(s) == 0 {
		return 0
	}
	switch s[0] {
	case 0x01, 0x02:
		return 1
	case 0x1b:
	default:
		return 0
	}
	if len(s) == 1 {
		return 1
	}
	if s[1] != '[' {
		// two-byte escape such as ESC c
		return 2
	}
	for i := 2; i < len(s); i++ {
		if s[i] >= 0x40 && s[i] <= 0x7e {
			return i + 1
		}
	}
	return len(s)
}
