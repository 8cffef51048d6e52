package buffer

import "time"

type ActionKind int

const (
	ActionInsert ActionKind = iota
	ActionDelete
	ActionMoveCursor
	ActionReplace
)

// Action is one reversible edit. Insert/Delete carry the affected bytes in
// Text; Replace additionally carries the text it displaced in OldText.
type Action struct {
	Kind    ActionKind
	Pos     int    // byte offset of the affected range
	Text    string
	OldText string // Replace only
	Old     Cursor // cursor before the action
	New     Cursor // cursor after the action
	Time    time.Time
}

func (a *Action) memory() int {
	return len(a.Text) + len(a.OldText)
}

const (
	MinUndoCapacity     = 10
	MaxUndoCapacity     = 1000
	DefaultUndoCapacity = 100

	// DefaultMergeTimeout bounds how far apart two keystrokes may be and
	// still coalesce into one undo step.
	DefaultMergeTimeout = 300 * time.Millisecond
)

// UndoStack holds a bounded history of actions. actions[:current] are
// undoable, actions[current:] are redoable. Pushing past capacity evicts the
// oldest entry.
type UndoStack struct {
	actions []Action
	current int

	capacity     int
	mergeSimilar bool
	mergeTimeout time.Duration

	totalMemory int
	peakMemory  int
}

func NewUndoStack(capacity int) *UndoStack {
	if capacity <= 0 {
		capacity = DefaultUndoCapacity
	}
	if capacity < MinUndoCapacity {
		capacity = MinUndoCapacity
	}
	if capacity > MaxUndoCapacity {
		capacity = MaxUndoCapacity
	}
	return &UndoStack{
		capacity:     capacity,
		mergeSimilar: true,
		mergeTimeout: DefaultMergeTimeout,
	}
}

// SetMerge configures keystroke coalescing. A non-positive timeout keeps the
// current one.
func (u *UndoStack) SetMerge(enabled bool, timeout time.Duration) {
	u.mergeSimilar = enabled
	if timeout > 0 {
		u.mergeTimeout = timeout
	}
}

func (u *UndoStack) Push(a Action) {
	a.Time = time.Now()

	// Any new action invalidates the redo tail.
	for i := u.current; i < len(u.actions); i++ {
		u.totalMemory -= u.actions[i].memory()
	}
	u.actions = u.actions[:u.current]

	if u.mergeSimilar && u.current > 0 {
		prev := &u.actions[u.current-1]
		if u.tryMerge(prev, &a) {
			return
		}
	}

	u.actions = append(u.actions, a)
	u.current = len(u.actions)
	u.totalMemory += a.memory()
	if u.totalMemory > u.peakMemory {
		u.peakMemory = u.totalMemory
	}

	if len(u.actions) > u.capacity {
		u.totalMemory -= u.actions[0].memory()
		u.actions = u.actions[1:]
		u.current--
	}
}

// tryMerge extends prev in place when a is a same-kind continuation:
// adjacent byte ranges, within the merge window, and neither side is
// whitespace (a space or newline ends the coalesced word, matching the
// keystroke grouping of mainstream editors).
func (u *UndoStack) tryMerge(prev, a *Action) bool {
	if prev.Kind != a.Kind {
		return false
	}
	if a.Time.Sub(prev.Time) >= u.mergeTimeout {
		return false
	}
	if isWhitespaceText(a.Text) || isWhitespaceText(prev.Text) {
		return false
	}
	switch a.Kind {
	case ActionInsert:
		if a.Pos != prev.Pos+len(prev.Text) {
			return false
		}
		prev.Text += a.Text
	case ActionDelete:
		switch {
		case a.Pos+len(a.Text) == prev.Pos:
			// backspace run, deleting right to left
			prev.Pos = a.Pos
			prev.Text = a.Text + prev.Text
		case a.Pos == prev.Pos:
			// forward-delete run
			prev.Text += a.Text
		default:
			return false
		}
	default:
		return false
	}
	prev.New = a.New
	prev.Time = a.Time
	u.totalMemory += len(a.Text)
	if u.totalMemory > u.peakMemory {
		u.peakMemory = u.totalMemory
	}
	return true
}

func isWhitespaceText(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case ' ', '\t', '\n':
		return true
	}
	return false
}

// Undo returns the most recent action and moves it to the redo side. The
// caller replays it in reverse.
func (u *UndoStack) Undo() (Action, bool) {
	if u.current == 0 {
		return Action{}, false
	}
	u.current--
	return u.actions[u.current], true
}

// Redo returns the most recently undone action and moves it back to the undo
// side. The caller replays it forward.
func (u *UndoStack) Redo() (Action, bool) {
	if u.current >= len(u.actions) {
		return Action{}, false
	}
	a := u.actions[u.current]
	u.current++
	return a, true
}

// Clear drops all history but keeps capacity and merge configuration.
func (u *UndoStack) Clear() {
	u.actions = nil
	u.current = 0
	u.totalMemory = 0
}

func (u *UndoStack) CanUndo() bool { return u.current > 0 }
func (u *UndoStack) CanRedo() bool { return u.current < len(u.actions) }

func (u *UndoStack) UndoCount() int { return u.current }
func (u *UndoStack) RedoCount() int { return len(u.actions) - u.current }
func (u *UndoStack) Len() int       { return len(u.actions) }
func (u *UndoStack) Capacity() int  { return u.capacity }

// TotalMemory reports the bytes of edit text currently retained by the
// stack. PeakMemory is the high-water mark; Clear does not reset it.
func (u *UndoStack) TotalMemory() int { return u.totalMemory }
func (u *UndoStack) PeakMemory() int  { return u.peakMemory }
