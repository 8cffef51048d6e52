package buffer

// Cursor is the insertion point, tracked redundantly as a byte offset and a
// rune offset into the buffer text. Both always refer to the same position,
// and that position is always the start of a UTF-8 sequence (or the end of
// the text).
type Cursor struct {
	Byte int
	Char int
}

func (c Cursor) Equal(other Cursor) bool {
	return c.Byte == other.Byte && c.Char == other.Char
}

func (c Cursor) Before(other Cursor) bool {
	return c.Byte < other.Byte
}

// Motion names the cursor movements the editor supports.
type Motion int

const (
	MotionHome Motion = iota
	MotionEnd
	MotionLeft
	MotionRight
	MotionWordLeft
	MotionWordRight
)
