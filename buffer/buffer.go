package buffer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Buffer owns the in-progress command text and the cursor. The text is kept
// as raw UTF-8; all mutations go through the methods below, which keep the
// byte and rune cursor offsets in agreement and record undo actions.
type Buffer struct {
	text   string
	Cursor Cursor
	Undo   *UndoStack
}

// Edit describes one completed mutation with enough information to replay or
// reverse it without re-scanning the buffer.
type Edit struct {
	Kind ActionKind
	Pos  int    // byte offset of the affected range
	Text string // bytes inserted or deleted
	Old  Cursor // cursor before the mutation
	New  Cursor // cursor after the mutation
}

func New(undoCapacity int) *Buffer {
	return &Buffer{
		Undo: NewUndoStack(undoCapacity),
	}
}

func (b *Buffer) Text() string { return b.text }

// Len returns the text length in bytes.
func (b *Buffer) Len() int { return len(b.text) }

// CharLen returns the text length in runes.
func (b *Buffer) CharLen() int { return utf8.RuneCountInString(b.text) }

// InsertRune inserts a single codepoint at the cursor. Invalid runes are
// inserted as U+FFFD so the buffer never holds bytes the cursor cannot land
// on.
func (b *Buffer) InsertRune(r rune) Edit {
	if r == utf8.RuneError || !utf8.ValidRune(r) {
		r = utf8.RuneError
	}
	return b.InsertText(string(r))
}

// InsertText inserts s at the cursor and advances the cursor past it.
// Inserting the empty string is a no-op.
func (b *Buffer) InsertText(s string) Edit {
	if s == "" {
		return Edit{Kind: ActionInsert, Pos: b.Cursor.Byte, Old: b.Cursor, New: b.Cursor}
	}
	old := b.Cursor
	b.text = b.text[:old.Byte] + s + b.text[old.Byte:]
	b.Cursor = Cursor{
		Byte: old.Byte + len(s),
		Char: old.Char + utf8.RuneCountInString(s),
	}
	ed := Edit{Kind: ActionInsert, Pos: old.Byte, Text: s, Old: old, New: b.Cursor}
	b.Undo.Push(Action{Kind: ActionInsert, Pos: ed.Pos, Text: s, Old: old, New: b.Cursor})
	return ed
}

// DeleteBeforeCursor removes the rune immediately before the cursor.
// At the start of the buffer it is a no-op, not an error.
func (b *Buffer) DeleteBeforeCursor() (Edit, bool) {
	if b.Cursor.Byte == 0 {
		return Edit{}, false
	}
	old := b.Cursor
	_, size := utf8.DecodeLastRuneInString(b.text[:old.Byte])
	pos := old.Byte - size
	deleted := b.text[pos:old.Byte]
	b.text = b.text[:pos] + b.text[old.Byte:]
	b.Cursor = Cursor{Byte: pos, Char: old.Char - 1}
	ed := Edit{Kind: ActionDelete, Pos: pos, Text: deleted, Old: old, New: b.Cursor}
	b.Undo.Push(Action{Kind: ActionDelete, Pos: pos, Text: deleted, Old: old, New: b.Cursor})
	return ed, true
}

// DeleteAtCursor removes the rune at the cursor. At the end of the buffer it
// is a no-op.
func (b *Buffer) DeleteAtCursor() (Edit, bool) {
	if b.Cursor.Byte >= len(b.text) {
		return Edit{}, false
	}
	old := b.Cursor
	_, size := utf8.DecodeRuneInString(b.text[old.Byte:])
	deleted := b.text[old.Byte : old.Byte+size]
	b.text = b.text[:old.Byte] + b.text[old.Byte+size:]
	ed := Edit{Kind: ActionDelete, Pos: old.Byte, Text: deleted, Old: old, New: b.Cursor}
	b.Undo.Push(Action{Kind: ActionDelete, Pos: old.Byte, Text: deleted, Old: old, New: b.Cursor})
	return ed, true
}

// DeleteRange removes the bytes between the cursor and the given byte offset
// (either side of the cursor) and returns the deleted text. Used for kill
// commands. Offsets are clamped to rune boundaries already established by
// the caller's cursor arithmetic.
func (b *Buffer) DeleteRange(to int) (Edit, bool) {
	if to < 0 {
		to = 0
	}
	if to > len(b.text) {
		to = len(b.text)
	}
	start, end := b.Cursor.Byte, to
	if start > end {
		start, end = end, start
	}
	if start == end {
		return Edit{}, false
	}
	old := b.Cursor
	deleted := b.text[start:end]
	b.text = b.text[:start] + b.text[end:]
	b.Cursor = Cursor{Byte: start, Char: utf8.RuneCountInString(b.text[:start])}
	ed := Edit{Kind: ActionDelete, Pos: start, Text: deleted, Old: old, New: b.Cursor}
	b.Undo.Push(Action{Kind: ActionDelete, Pos: start, Text: deleted, Old: old, New: b.Cursor})
	return ed, true
}

// SetText replaces the whole buffer content, moving the cursor to the end.
// Recorded as a single Replace action so one undo restores the previous
// line (used by history recall).
func (b *Buffer) SetText(s string) Edit {
	old := b.Cursor
	oldText := b.text
	b.text = s
	b.Cursor = Cursor{Byte: len(s), Char: utf8.RuneCountInString(s)}
	ed := Edit{Kind: ActionReplace, Pos: 0, Text: s, Old: old, New: b.Cursor}
	b.Undo.Push(Action{Kind: ActionReplace, Pos: 0, Text: s, OldText: oldText, Old: old, New: b.Cursor})
	return ed
}

// Move moves the cursor without touching the text. Moves past either end of
// the buffer are clamped, not errors.
func (b *Buffer) Move(m Motion) Edit {
	old := b.Cursor
	switch m {
	case MotionHome:
		b.Cursor = Cursor{}
	case MotionEnd:
		b.Cursor = Cursor{Byte: len(b.text), Char: utf8.RuneCountInString(b.text)}
	case MotionLeft:
		if b.Cursor.Byte > 0 {
			_, size := utf8.DecodeLastRuneInString(b.text[:b.Cursor.Byte])
			b.Cursor.Byte -= size
			b.Cursor.Char--
		}
	case MotionRight:
		if b.Cursor.Byte < len(b.text) {
			_, size := utf8.DecodeRuneInString(b.text[b.Cursor.Byte:])
			b.Cursor.Byte += size
			b.Cursor.Char++
		}
	case MotionWordLeft:
		b.Cursor = b.wordLeft()
	case MotionWordRight:
		b.Cursor = b.wordRight()
	}
	return Edit{Kind: ActionMoveCursor, Pos: b.Cursor.Byte, Old: old, New: b.Cursor}
}

// WordLeftBoundary returns the cursor position one word to the left without
// moving the cursor. Kill-word uses it to compute the range to delete.
func (b *Buffer) WordLeftBoundary() Cursor { return b.wordLeft() }

// charClass returns 0 for whitespace, 1 for word runes (letter/digit/_),
// 2 for symbols.
func charClass(r rune) int {
	if unicode.IsSpace(r) {
		return 0
	}
	if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
		return 1
	}
	return 2
}

func (b *Buffer) wordLeft() Cursor {
	cur := b.Cursor
	// Skip whitespace backward
	for cur.Byte > 0 {
		r, size := utf8.DecodeLastRuneInString(b.text[:cur.Byte])
		if charClass(r) != 0 {
			break
		}
		cur.Byte -= size
		cur.Char--
	}
	// Skip contiguous runes of the same class backward
	if cur.Byte > 0 {
		r, _ := utf8.DecodeLastRuneInString(b.text[:cur.Byte])
		cls := charClass(r)
		for cur.Byte > 0 {
			r, size := utf8.DecodeLastRuneInString(b.text[:cur.Byte])
			if charClass(r) != cls {
				break
			}
			cur.Byte -= size
			cur.Char--
		}
	}
	return cur
}

func (b *Buffer) wordRight() Cursor {
	cur := b.Cursor
	if cur.Byte >= len(b.text) {
		return cur
	}
	r, _ := utf8.DecodeRuneInString(b.text[cur.Byte:])
	cls := charClass(r)
	if cls == 0 {
		// On whitespace: skip it, then the next same-class chunk
		for cur.Byte < len(b.text) {
			r, size := utf8.DecodeRuneInString(b.text[cur.Byte:])
			if charClass(r) != 0 {
				break
			}
			cur.Byte += size
			cur.Char++
		}
		if cur.Byte < len(b.text) {
			r, _ := utf8.DecodeRuneInString(b.text[cur.Byte:])
			next := charClass(r)
			for cur.Byte < len(b.text) {
				r, size := utf8.DecodeRuneInString(b.text[cur.Byte:])
				if charClass(r) != next {
					break
				}
				cur.Byte += size
				cur.Char++
			}
		}
		return cur
	}
	// On a word or symbol: skip the chunk, then trailing whitespace
	for cur.Byte < len(b.text) {
		r, size := utf8.DecodeRuneInString(b.text[cur.Byte:])
		if charClass(r) != cls {
			break
		}
		cur.Byte += size
		cur.Char++
	}
	for cur.Byte < len(b.text) {
		r, size := utf8.DecodeRuneInString(b.text[cur.Byte:])
		if charClass(r) != 0 {
			break
		}
		cur.Byte += size
		cur.Char++
	}
	return cur
}

// ApplyUndo pops the most recent action and reverses it.
func (b *Buffer) ApplyUndo() bool {
	a, ok := b.Undo.Undo()
	if !ok {
		return false
	}
	switch a.Kind {
	case ActionInsert:
		b.text = b.text[:a.Pos] + b.text[a.Pos+len(a.Text):]
	case ActionDelete:
		b.text = b.text[:a.Pos] + a.Text + b.text[a.Pos:]
	case ActionReplace:
		b.text = a.OldText
	case ActionMoveCursor:
		// cursor restore below is the whole effect
	}
	b.Cursor = a.Old
	return true
}

// ApplyRedo re-applies the most recently undone action.
func (b *Buffer) ApplyRedo() bool {
	a, ok := b.Undo.Redo()
	if !ok {
		return false
	}
	switch a.Kind {
	case ActionInsert:
		b.text = b.text[:a.Pos] + a.Text + b.text[a.Pos:]
	case ActionDelete:
		b.text = b.text[:a.Pos] + b.text[a.Pos+len(a.Text):]
	case ActionReplace:
		b.text = a.Text
	case ActionMoveCursor:
	}
	b.Cursor = a.New
	return true
}

// Reset clears the text and cursor and drops all undo history. Used when a
// line is accepted or abandoned.
func (b *Buffer) Reset() {
	b.text = ""
	b.Cursor = Cursor{}
	b.Undo.Clear()
}

// Word returns the whitespace-delimited word containing or preceding the
// cursor, for completion-style lookups by callers.
func (b *Buffer) Word() string {
	start := b.wordLeft()
	end := b.Cursor.Byte
	if start.Byte >= end {
		return ""
	}
	return strings.TrimSpace(b.text[start.Byte:end])
}
