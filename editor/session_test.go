package editor

import (
	"errors"
	"testing"
	"time"

	"lineedit/config"
	"lineedit/prompt"

	"github.com/gdamore/tcell/v2"
)

// fakeComp satisfies Compositor without a terminal.
type fakeComp struct {
	lastCommand string
	lastCursor  int
	lastStatus  string
	statusErr   bool
	prompt      *prompt.Prompt
	applied     *config.Config
}

func (f *fakeComp) SetCommand(text string, cursorByte int) error {
	f.lastCommand = text
	f.lastCursor = cursorByte
	return nil
}

func (f *fakeComp) SetCursorPosition(row, col int)                      {}
func (f *fakeComp) InvalidateCursor()                                   {}
func (f *fakeComp) ProcessPending(maxEvents int, timeout time.Duration) {}
func (f *fakeComp) Width() int                                          { return 80 }
func (f *fakeComp) SetPrompt(p *prompt.Prompt)                          { f.prompt = p }
func (f *fakeComp) SetStatus(msg string, isError bool) {
	f.lastStatus = msg
	f.statusErr = isError
}

func (f *fakeComp) ApplyConfig(cfg *config.Config) { f.applied = cfg }

func keyStream(evs ...*tcell.EventKey) chan *tcell.EventKey {
	ch := make(chan *tcell.EventKey, len(evs))
	for _, ev := range evs {
		ch <- ev
	}
	return ch
}

func runes(s string) []*tcell.EventKey {
	var evs []*tcell.EventKey
	for _, r := range s {
		evs = append(evs, tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
	return evs
}

func key(k tcell.Key) *tcell.EventKey { return tcell.NewEventKey(k, 0, tcell.ModNone) }

func newTestSession(t *testing.T, keys chan *tcell.EventKey) (*Session, *fakeComp) {
	t.Helper()
	comp := &fakeComp{}
	s, err := NewSession(config.Default(), comp, keys)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s, comp
}

func TestReadLineAcceptsTypedInput(t *testing.T) {
	keys := keyStream(append(runes("ls -la"), key(tcell.KeyEnter))...)
	s, comp := newTestSession(t, keys)

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "ls -la" {
		t.Fatalf("expected %q, got %q", "ls -la", line)
	}
	if len(s.History()) != 1 || s.History()[0] != "ls -la" {
		t.Fatalf("expected the accepted line in history, got %v", s.History())
	}
	if comp.lastCommand != "ls -la" {
		t.Fatalf("compositor should have seen the final text, got %q", comp.lastCommand)
	}
}

func TestCtrlCInterrupts(t *testing.T) {
	keys := keyStream(append(runes("abc"), key(tcell.KeyCtrlC))...)
	s, _ := newTestSession(t, keys)

	line, err := s.ReadLine()
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if line != "" {
		t.Fatalf("interrupted line must be discarded, got %q", line)
	}
	if len(s.History()) != 0 {
		t.Fatalf("interrupted line must not enter history")
	}
}

func TestCtrlDOnEmptyLineIsEOF(t *testing.T) {
	s, _ := newTestSession(t, keyStream(key(tcell.KeyCtrlD)))
	if _, err := s.ReadLine(); !errors.Is(err, ErrEOF) {
		t.Fatalf("expected ErrEOF, got %v", err)
	}
}

func TestCtrlDWithTextDeletesForward(t *testing.T) {
	evs := runes("ab")
	evs = append(evs, key(tcell.KeyHome), key(tcell.KeyCtrlD), key(tcell.KeyEnter))
	s, _ := newTestSession(t, keyStream(evs...))

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "b" {
		t.Fatalf("expected ctrl+d to delete forward, got %q", line)
	}
}

func TestClosedKeyStreamIsEOF(t *testing.T) {
	keys := keyStream()
	close(keys)
	s, _ := newTestSession(t, keys)
	if _, err := s.ReadLine(); !errors.Is(err, ErrEOF) {
		t.Fatalf("expected ErrEOF on closed key stream, got %v", err)
	}
}

func TestHistoryNavigation(t *testing.T) {
	keys := make(chan *tcell.EventKey, 32)
	s, _ := newTestSession(t, keys)

	feed := func(evs ...*tcell.EventKey) {
		for _, ev := range evs {
			keys <- ev
		}
	}

	feed(append(runes("one"), key(tcell.KeyEnter))...)
	if line, _ := s.ReadLine(); line != "one" {
		t.Fatalf("expected one, got %q", line)
	}
	feed(append(runes("two"), key(tcell.KeyEnter))...)
	if line, _ := s.ReadLine(); line != "two" {
		t.Fatalf("expected two, got %q", line)
	}

	// Up twice recalls "one", down comes back to "two".
	feed(key(tcell.KeyUp), key(tcell.KeyUp), key(tcell.KeyDown), key(tcell.KeyEnter))
	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "two" {
		t.Fatalf("expected recalled two, got %q", line)
	}
}

func TestHistoryStashRestoresPartialLine(t *testing.T) {
	keys := make(chan *tcell.EventKey, 32)
	s, _ := newTestSession(t, keys)

	feed := func(evs ...*tcell.EventKey) {
		for _, ev := range evs {
			keys <- ev
		}
	}

	feed(append(runes("first"), key(tcell.KeyEnter))...)
	s.ReadLine()

	// Start typing, recall history, then come back to the unfinished line.
	feed(runes("par")...)
	feed(key(tcell.KeyUp), key(tcell.KeyDown), key(tcell.KeyEnter))
	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "par" {
		t.Fatalf("expected the stashed partial line, got %q", line)
	}
}

func TestUndoKeystroke(t *testing.T) {
	// Rapid inserts merge into one undo action, so one ctrl+z removes them all.
	evs := runes("abc")
	evs = append(evs, key(tcell.KeyCtrlZ))
	evs = append(evs, runes("x")...)
	evs = append(evs, key(tcell.KeyEnter))
	s, _ := newTestSession(t, keyStream(evs...))

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "x" {
		t.Fatalf("expected undo to clear the merged insert, got %q", line)
	}
}

func TestKillToStartClearsLine(t *testing.T) {
	evs := runes("rm -rf /tmp/x")
	evs = append(evs, key(tcell.KeyCtrlU), key(tcell.KeyEnter))
	s, _ := newTestSession(t, keyStream(evs...))

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "" {
		t.Fatalf("expected ctrl+u to clear the line, got %q", line)
	}
	if len(s.History()) != 0 {
		t.Fatalf("empty accepted line must not enter history")
	}
}

func TestWordwiseKillAndMotion(t *testing.T) {
	evs := runes("git commit now")
	evs = append(evs, key(tcell.KeyCtrlW), key(tcell.KeyCtrlW), key(tcell.KeyEnter))
	s, _ := newTestSession(t, keyStream(evs...))

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "git " {
		t.Fatalf("expected two word kills to leave %q, got %q", "git ", line)
	}
}

func TestNewSessionRejectsNilCollaborators(t *testing.T) {
	if _, err := NewSession(config.Default(), nil, make(chan *tcell.EventKey)); err == nil {
		t.Fatalf("expected error for nil compositor")
	}
	if _, err := NewSession(config.Default(), &fakeComp{}, nil); err == nil {
		t.Fatalf("expected error for nil key stream")
	}
}

func TestConfigReloadAppliedBeforeNextKeystroke(t *testing.T) {
	keys := keyStream(append(runes("ok"), key(tcell.KeyEnter))...)
	s, comp := newTestSession(t, keys)

	updated := config.Default()
	updated.Theme = "light"
	updated.MergeSimilar = false
	s.ReloadConfig(updated)

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "ok" {
		t.Fatalf("expected ok, got %q", line)
	}
	if s.cfg != updated {
		t.Fatalf("queued config never reached the session")
	}
	if comp.applied == nil || comp.applied.Theme != "light" {
		t.Fatalf("queued config never reached the compositor")
	}
	// Merging was switched off before the first key, so the two runes stay
	// separate undo actions.
	if got := s.buf.Undo.Len(); got != 2 {
		t.Fatalf("expected 2 unmerged actions, got %d", got)
	}
}

func TestConfigReloadDuringEditing(t *testing.T) {
	keys := keyStream(append(runes("echo hello"), key(tcell.KeyEnter))...)
	s, _ := newTestSession(t, keys)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			s.ReloadConfig(config.Default())
		}
	}()

	line, err := s.ReadLine()
	<-done
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "echo hello" {
		t.Fatalf("expected echo hello, got %q", line)
	}
}

func TestSetPromptReparsesGeometry(t *testing.T) {
	s, comp := newTestSession(t, keyStream())
	s.SetPrompt("db\x01\x1b[33m\x02> ")
	if comp.prompt == nil {
		t.Fatalf("prompt never reached the compositor")
	}
	if comp.prompt.Geometry.LastLineWidth != 4 {
		t.Fatalf("expected prompt width 4, got %d", comp.prompt.Geometry.LastLineWidth)
	}
}
