package display

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// CursorPosition carries the cursor through the render path. ByteOffset and
// CharOffset come from the buffer; ScreenRow and ScreenCol are filled in by
// the position engine. Valid false means the screen coordinates are stale
// and must not be rendered.
type CursorPosition struct {
	ByteOffset int
	CharOffset int
	ScreenRow  int
	ScreenCol  int
	Valid      bool
}

// Position walks the rendered text and returns the screen row and column of
// cursorByte. startCol is the column where the text begins, normally the
// display width of the prompt's last line. The walk is incremental rather
// than offset/width arithmetic because escapes, tabs, combining marks and
// wide glyphs make column position depend on everything before the cursor.
//
// The cursor check happens before consuming the unit at the offset, so the
// cursor lands before the character it points at, never after it.
func Position(text string, cursorByte, startCol, termWidth, tabWidth int) (row, col int) {
	if termWidth <= 0 {
		// no terminal to wrap against
		return 0, startCol
	}
	if tabWidth <= 0 {
		tabWidth = 8
	}

	x, y := startCol, 0
	processed := 0
	for processed < len(text) {
		if processed >= cursorByte {
			return y, x
		}
		c := text[processed]
		switch {
		case c == 0x1b:
			processed += ansiLen(text[processed:])
		case c == '\n':
			x = 0
			y++
			processed++
		case c == '\r':
			x = 0
			processed++
		case c == '\t':
			x = x - x%tabWidth + tabWidth
			if x >= termWidth {
				y += x / termWidth
				x %= termWidth
			}
			processed++
		default:
			cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(text[processed:], -1)
			if cluster == "" {
				// cannot happen for non-empty input; consume one byte
				processed++
				continue
			}
			base, _ := utf8.DecodeRuneInString(cluster)
			x += runewidth.RuneWidth(base)
			if x >= termWidth {
				x = 0
				y++
			}
			processed += len(cluster)
		}
	}
	return y, x
}

// ansiLen returns the byte length of the escape sequence starting at s[0],
// which must be ESC. CSI sequences run to their final byte in 0x40..0x7e;
// an unterminated sequence consumes the remainder of the string.
func ansiLen(s string) int {
	if len(s) == 1 {
		return 1
	}
	if s[1] != '[' {
		return 2
	}
	for i := 2; i < len(s); i++ {
		if s[i] >= 0x40 && s[i] <= 0x7e {
			return i + 1
		}
	}
	return len(s)
}
