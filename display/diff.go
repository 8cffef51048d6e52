package display

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"
)

// DiffTracker remembers what was last handed to the compositor so that
// unchanged frames can be skipped and changed frames can carry the dirty
// byte range instead of forcing a full redraw. The mutex makes ForceFull
// callable from a secondary producer (a resize handler) while the main loop
// is mid-Update.
type DiffTracker struct {
	mu sync.Mutex

	lastText       string
	lastBufferHash uint64
	lastCursorHash uint64

	dirtyStart int
	dirtyEnd   int

	fullRedrawNeeded bool
}

func NewDiffTracker() *DiffTracker {
	// The first render after construction is always a full redraw.
	return &DiffTracker{fullRedrawNeeded: true}
}

// Update compares the state about to be rendered against the previous render
// and records it. changed reports whether anything needs drawing at all;
// full forces a non-incremental redraw. When changed and not full, DirtyStart
// and DirtyEnd bound the modified bytes of text.
func (d *DiffTracker) Update(text string, cur CursorPosition) (changed, full bool) {
	bufHash := hash64(text)
	curHash := cursorHash(cur)

	d.mu.Lock()
	defer d.mu.Unlock()

	full = d.fullRedrawNeeded
	d.fullRedrawNeeded = false

	textChanged := bufHash != d.lastBufferHash
	cursorChanged := curHash != d.lastCursorHash
	if textChanged {
		d.dirtyStart, d.dirtyEnd = dirtyRange(d.lastText, text)
	} else {
		d.dirtyStart, d.dirtyEnd = 0, 0
	}

	d.lastText = text
	d.lastBufferHash = bufHash
	d.lastCursorHash = curHash

	return textChanged || cursorChanged || full, full
}

// ForceFull makes the next Update report a full redraw, for resize and
// render-failure recovery.
func (d *DiffTracker) ForceFull() {
	d.mu.Lock()
	d.fullRedrawNeeded = true
	d.mu.Unlock()
}

func (d *DiffTracker) DirtyStart() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirtyStart
}

func (d *DiffTracker) DirtyEnd() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirtyEnd
}

// dirtyRange returns the byte range of next that differs from prev, computed
// from the common prefix and suffix. The end offset is relative to next.
func dirtyRange(prev, next string) (start, end int) {
	n := len(prev)
	if len(next) < n {
		n = len(next)
	}
	for start < n && prev[start] == next[start] {
		start++
	}
	prevEnd, nextEnd := len(prev), len(next)
	for prevEnd > start && nextEnd > start && prev[prevEnd-1] == next[nextEnd-1] {
		prevEnd--
		nextEnd--
	}
	return start, nextEnd
}

func hash64(s string) uint64 {
	sum := sha256.Sum256([]byte(s))
	return binary.BigEndian.Uint64(sum[:8])
}

func cursorHash(cur CursorPosition) uint64 {
	var b [17]byte
	binary.BigEndian.PutUint32(b[0:], uint32(cur.ByteOffset))
	binary.BigEndian.PutUint32(b[4:], uint32(cur.ScreenRow))
	binary.BigEndian.PutUint32(b[8:], uint32(cur.ScreenCol))
	binary.BigEndian.PutUint32(b[12:], uint32(cur.CharOffset))
	if cur.Valid {
		b[16] = 1
	}
	sum := sha256.Sum256(b[:])
	return binary.BigEndian.Uint64(sum[:8])
}
