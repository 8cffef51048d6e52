package display

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeCompositor records calls and can be told to fail SetCommand.
type fakeCompositor struct {
	width       int
	failWith    error
	commands    []string
	cursorBytes []int
	lastRow     int
	lastCol     int
	invalidated int
	processed   int
}

func (f *fakeCompositor) SetCommand(text string, cursorByte int) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.commands = append(f.commands, text)
	f.cursorBytes = append(f.cursorBytes, cursorByte)
	return nil
}

func (f *fakeCompositor) SetCursorPosition(row, col int) {
	f.lastRow, f.lastCol = row, col
}

func (f *fakeCompositor) InvalidateCursor() { f.invalidated++ }

func (f *fakeCompositor) ProcessPending(maxEvents int, timeout time.Duration) { f.processed++ }

func (f *fakeCompositor) Width() int { return f.width }

func TestBridgeRejectsNilCompositor(t *testing.T) {
	if _, err := NewBridge(nil, BridgeConfig{}); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("expected ErrInvalidParam, got %v", err)
	}
}

func TestBridgeSendsCommandAndCursor(t *testing.T) {
	comp := &fakeCompositor{width: 40}
	br, err := NewBridge(comp, BridgeConfig{})
	if err != nil {
		t.Fatalf("NewBridge: %v", err)
	}

	cur := CursorPosition{ByteOffset: 2, CharOffset: 2, Valid: true}
	if err := br.SendOutput("ls", cur, 3); err != nil {
		t.Fatalf("SendOutput: %v", err)
	}
	if br.State() != SyncComplete {
		t.Fatalf("expected complete state, got %v", br.State())
	}
	if len(comp.commands) != 1 || comp.commands[0] != "ls" {
		t.Fatalf("expected one SetCommand with ls, got %v", comp.commands)
	}
	if comp.lastRow != 0 || comp.lastCol != 5 {
		t.Fatalf("expected cursor at (0,5), got (%d,%d)", comp.lastRow, comp.lastCol)
	}
	if comp.processed != 1 {
		t.Fatalf("expected one ProcessPending, got %d", comp.processed)
	}
	if br.Queue().Len() != 0 {
		t.Fatalf("queue should be drained after a send, %d left", br.Queue().Len())
	}
}

func TestBridgeSkipsUnchangedFrame(t *testing.T) {
	comp := &fakeCompositor{width: 40}
	br, _ := NewBridge(comp, BridgeConfig{})
	cur := CursorPosition{ByteOffset: 2, Valid: true}
	br.SendOutput("ls", cur, 0)
	if err := br.SendOutput("ls", cur, 0); err != nil {
		t.Fatalf("SendOutput: %v", err)
	}
	if len(comp.commands) != 1 {
		t.Fatalf("identical frame must not reach the compositor, got %d commands", len(comp.commands))
	}
	if br.State() != SyncComplete {
		t.Fatalf("skipped frame should still complete, got %v", br.State())
	}
	if comp.processed != 2 {
		t.Fatalf("skipped frame must still drain events, got %d drains", comp.processed)
	}
}

func TestBridgeFullRenderRequestFromSecondaryProducer(t *testing.T) {
	comp := &fakeCompositor{width: 40}
	br, _ := NewBridge(comp, BridgeConfig{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			br.RequestFullRender()
		}
	}()
	for i := 0; i < 200; i++ {
		cur := CursorPosition{ByteOffset: 1, Valid: true}
		if err := br.SendOutput("a", cur, 0); err != nil {
			t.Fatalf("SendOutput: %v", err)
		}
	}
	<-done

	// With the producer finished, one more send flushes whatever it queued.
	if err := br.SendOutput("ab", CursorPosition{ByteOffset: 2, Valid: true}, 0); err != nil {
		t.Fatalf("SendOutput: %v", err)
	}
	if br.State() != SyncComplete {
		t.Fatalf("expected complete state, got %v", br.State())
	}
	if br.Queue().Len() != 0 {
		t.Fatalf("expected drained queue, got %d", br.Queue().Len())
	}
}

func TestBridgeCountsFailuresWithoutRetry(t *testing.T) {
	comp := &fakeCompositor{width: 40, failWith: errors.New("terminal gone")}
	br, _ := NewBridge(comp, BridgeConfig{})

	cur := CursorPosition{ByteOffset: 1, Valid: true}
	err := br.SendOutput("a", cur, 0)
	if !errors.Is(err, ErrCompositor) {
		t.Fatalf("expected wrapped ErrCompositor, got %v", err)
	}
	if br.State() != SyncError || br.ConsecutiveErrors() != 1 {
		t.Fatalf("expected error state with 1 failure, got %v / %d", br.State(), br.ConsecutiveErrors())
	}

	if err := br.SendOutput("ab", CursorPosition{ByteOffset: 2, Valid: true}, 0); err == nil {
		t.Fatalf("expected second failure")
	}
	if br.ConsecutiveErrors() != 2 {
		t.Fatalf("expected 2 consecutive failures, got %d", br.ConsecutiveErrors())
	}

	// Recovery resets the counter and forces a full render.
	comp.failWith = nil
	if err := br.SendOutput("abc", CursorPosition{ByteOffset: 3, Valid: true}, 0); err != nil {
		t.Fatalf("SendOutput after recovery: %v", err)
	}
	if br.ConsecutiveErrors() != 0 || br.LastError() != nil || br.State() != SyncComplete {
		t.Fatalf("recovery must reset error context, got %d / %v / %v",
			br.ConsecutiveErrors(), br.LastError(), br.State())
	}
}

func TestBridgeInvalidCursor(t *testing.T) {
	comp := &fakeCompositor{width: 40}
	br, _ := NewBridge(comp, BridgeConfig{})
	if err := br.SendOutput("ls", CursorPosition{ByteOffset: 2}, 0); err != nil {
		t.Fatalf("SendOutput: %v", err)
	}
	if comp.invalidated != 1 {
		t.Fatalf("invalid cursor must invalidate, got %d calls", comp.invalidated)
	}
}

func TestBridgeWidthFallback(t *testing.T) {
	// Width 0 means unknown; the position engine falls back to 80 columns.
	comp := &fakeCompositor{width: 0}
	br, _ := NewBridge(comp, BridgeConfig{})
	text := strings.Repeat("x", 85)
	cur := CursorPosition{ByteOffset: 85, Valid: true}
	if err := br.SendOutput(text, cur, 0); err != nil {
		t.Fatalf("SendOutput: %v", err)
	}
	if comp.lastRow != 1 || comp.lastCol != 5 {
		t.Fatalf("expected wrap at 80 columns, got (%d,%d)", comp.lastRow, comp.lastCol)
	}
}

func TestBridgeRequestFullRender(t *testing.T) {
	comp := &fakeCompositor{width: 40}
	br, _ := NewBridge(comp, BridgeConfig{})
	cur := CursorPosition{ByteOffset: 2, Valid: true}
	br.SendOutput("ls", cur, 0)

	br.RequestFullRender()
	// Same frame again, but the forced request makes it reach the compositor.
	if err := br.SendOutput("ls", cur, 0); err != nil {
		t.Fatalf("SendOutput: %v", err)
	}
	if len(comp.commands) != 2 {
		t.Fatalf("forced render must reach the compositor, got %d commands", len(comp.commands))
	}
	if comp.commands[1] != "ls" {
		t.Fatalf("coalescing must keep the newest text, got %q", comp.commands[1])
	}
}
