package display

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Compositor is the boundary contract to the external terminal-rendering
// subsystem. The bridge pushes editor state through it and never reaches
// around it to the terminal.
type Compositor interface {
	// SetCommand updates the renderer's notion of the current command text
	// and publishes a redraw-needed signal.
	SetCommand(text string, cursorByte int) error
	// SetCursorPosition stores the screen cursor for the next draw.
	SetCursorPosition(row, col int)
	// InvalidateCursor marks the compositor cursor state stale so no
	// guessed position is ever rendered.
	InvalidateCursor()
	// ProcessPending drains at most maxEvents pending display events
	// within timeout.
	ProcessPending(maxEvents int, timeout time.Duration)
	// Width reports the current terminal column count, or 0 if unknown.
	Width() int
}

// SyncState records the outcome of the last push to the compositor.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncComplete
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncComplete:
		return "complete"
	case SyncError:
		return "error"
	}
	return "unknown"
}

const (
	defaultQueueCapacity = 32
	defaultTabWidth      = 8
	defaultMaxEvents     = 64
	defaultEventTimeout  = 10 * time.Millisecond
	fallbackWidth        = 80
)

// BridgeConfig tunes a Bridge. Zero values take the defaults above.
type BridgeConfig struct {
	QueueCapacity int
	TabWidth      int
	MaxEvents     int
	EventTimeout  time.Duration
}

// Bridge keeps the compositor synchronized with editor state. It borrows the
// text and cursor for the duration of one SendOutput call and owns nothing
// of the editor; it exclusively owns its queue, diff tracker and error
// context.
type Bridge struct {
	comp  Compositor
	queue *RenderQueue
	diff  *DiffTracker

	state             SyncState
	consecutiveErrors int
	lastErr           error
	forceFullRender   bool

	tabWidth     int
	maxEvents    int
	eventTimeout time.Duration
	seq          atomic.Uint64
}

// NewBridge constructs the bridge and everything it owns, in order: render
// queue, diff tracker, error context. Construction is all-or-nothing; a
// failed step returns an error and leaves nothing half-built.
func NewBridge(comp Compositor, cfg BridgeConfig) (*Bridge, error) {
	if comp == nil {
		return nil, fmt.Errorf("%w: nil compositor", ErrInvalidParam)
	}
	if cfg.QueueCapacity == 0 {
		cfg.QueueCapacity = defaultQueueCapacity
	}
	if cfg.TabWidth <= 0 {
		cfg.TabWidth = defaultTabWidth
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = defaultMaxEvents
	}
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = defaultEventTimeout
	}

	queue, err := NewRenderQueue(cfg.QueueCapacity)
	if err != nil {
		return nil, err
	}
	return &Bridge{
		comp:            comp,
		queue:           queue,
		diff:            NewDiffTracker(),
		state:           SyncIdle,
		forceFullRender: true,
		tabWidth:        cfg.TabWidth,
		maxEvents:       cfg.MaxEvents,
		eventTimeout:    cfg.EventTimeout,
	}, nil
}

// SendOutput pushes the rendered text and cursor to the compositor. startCol
// is the column where the text begins on screen, normally the prompt's
// last-line width.
//
// A compositor failure is counted and returned, never retried here; the
// caller decides whether to force a full redraw or degrade. Editor state is
// unaffected either way.
func (br *Bridge) SendOutput(text string, cur CursorPosition, startCol int) error {
	if br.comp == nil {
		return ErrInvalidState
	}

	width := br.comp.Width()
	if width <= 0 {
		width = fallbackWidth
	}

	if cur.Valid {
		row, col := Position(text, cur.ByteOffset, startCol, width, br.tabWidth)
		cur.ScreenRow, cur.ScreenCol = row, col
		br.comp.SetCursorPosition(row, col)
	} else {
		br.comp.InvalidateCursor()
	}

	changed, full := br.diff.Update(text, cur)
	if br.forceFullRender {
		full = true
		br.forceFullRender = false
	}

	req := RenderRequest{Text: text, Cursor: cur, Full: full, Seq: br.seq.Add(1)}
	if err := br.queue.Push(req); err != nil {
		// Queue backed up by a secondary producer; drop the oldest
		// pending request rather than the newest state.
		br.queue.Pop()
		if err := br.queue.Push(req); err != nil {
			return err
		}
	}

	if !changed {
		// Nothing to draw; drain our own request and any stragglers, but
		// still give the compositor its event slice so resizes are not
		// stalled behind no-op keystrokes.
		br.drainQueue()
		br.comp.ProcessPending(br.maxEvents, br.eventTimeout)
		br.state = SyncComplete
		return nil
	}

	if err := br.flush(); err != nil {
		br.consecutiveErrors++
		br.lastErr = err
		br.state = SyncError
		br.forceFullRender = true
		return err
	}

	br.comp.ProcessPending(br.maxEvents, br.eventTimeout)
	br.consecutiveErrors = 0
	br.lastErr = nil
	br.state = SyncComplete
	return nil
}

// flush drains the queue, coalescing pending requests into the newest one,
// and hands that to the compositor's command layer.
func (br *Bridge) flush() error {
	var last RenderRequest
	have := false
	full := false
	for {
		req, ok := br.queue.Pop()
		if !ok {
			break
		}
		full = full || req.Full
		last = req
		have = true
	}
	if !have {
		return nil
	}
	last.Full = full
	if err := br.comp.SetCommand(last.Text, last.Cursor.ByteOffset); err != nil {
		return fmt.Errorf("%w: %v", ErrCompositor, err)
	}
	return nil
}

func (br *Bridge) drainQueue() {
	for {
		if _, ok := br.queue.Pop(); !ok {
			return
		}
	}
}

// RequestFullRender queues a full-redraw request. Safe to call from a
// secondary producer such as a resize handler: the diff tracker is locked,
// the sequence counter is atomic and the queue carries its own mutex. The
// request is applied on the next SendOutput.
func (br *Bridge) RequestFullRender() {
	br.diff.ForceFull()
	_ = br.queue.Push(RenderRequest{Full: true, Seq: br.seq.Add(1)})
}

func (br *Bridge) State() SyncState       { return br.state }
func (br *Bridge) ConsecutiveErrors() int { return br.consecutiveErrors }
func (br *Bridge) LastError() error       { return br.lastErr }
func (br *Bridge) Queue() *RenderQueue    { return br.queue }
func (br *Bridge) Diff() *DiffTracker     { return br.diff }
