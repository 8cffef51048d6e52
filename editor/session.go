package editor

import (
	"errors"
	"fmt"

	"lineedit/buffer"
	"lineedit/clipboardx"
	"lineedit/config"
	"lineedit/display"
	"lineedit/prompt"

	"github.com/gdamore/tcell/v2"
)

// ErrInterrupted is returned by ReadLine when the user cancels the line with
// Ctrl+C. ErrEOF is returned for Ctrl+D on an empty line.
var (
	ErrInterrupted = errors.New("editor: interrupted")
	ErrEOF         = errors.New("editor: end of input")
)

// Compositor extends the bridge's view of the renderer with the calls the
// session itself needs: prompt installation, status messages, and config
// pickup (applied from the editing loop, never a watcher goroutine).
type Compositor interface {
	display.Compositor
	SetPrompt(p *prompt.Prompt)
	SetStatus(msg string, isError bool)
	ApplyConfig(cfg *config.Config)
}

// Session is one independent line-editing instance. It owns the buffer, the
// parsed prompt and the bridge; the compositor and key stream are borrowed
// collaborators. Multiple sessions may coexist as long as each has its own
// compositor.
type Session struct {
	cfg    *config.Config
	comp   Compositor
	keys   <-chan *tcell.EventKey
	buf    *buffer.Buffer
	prompt *prompt.Prompt
	bridge *display.Bridge

	history   []string
	histPos   int
	histStash string

	lastKill string

	// cfgCh carries live-reloaded configs from the watcher goroutine into
	// the editing loop, which alone touches session state.
	cfgCh chan *config.Config

	// refreshing guards against re-entrant refresh from handlers that
	// mutate the buffer while a render is being prepared.
	refreshing bool

	done   bool
	result string
	err    error
}

func NewSession(cfg *config.Config, comp Compositor, keys <-chan *tcell.EventKey) (*Session, error) {
	if comp == nil || keys == nil {
		return nil, fmt.Errorf("%w: session needs a compositor and a key stream", display.ErrInvalidParam)
	}
	bridge, err := display.NewBridge(comp, display.BridgeConfig{
		TabWidth:     cfg.TabWidth,
		MaxEvents:    cfg.MaxEvents,
		EventTimeout: cfg.EventTimeout(),
	})
	if err != nil {
		return nil, err
	}
	buf := buffer.New(cfg.UndoCapacity)
	buf.Undo.SetMerge(cfg.MergeSimilar, cfg.MergeTimeout())
	s := &Session{
		cfg:    cfg,
		comp:   comp,
		keys:   keys,
		buf:    buf,
		bridge: bridge,
		prompt: prompt.Parse("> ", comp.Width()),
		cfgCh:  make(chan *config.Config, 1),
	}
	comp.SetPrompt(s.prompt)
	return s, nil
}

// SetPrompt parses and installs a new prompt string. Must be called again
// if the prompt text changes; the parsed geometry would otherwise go stale.
func (s *Session) SetPrompt(text string) {
	s.prompt = prompt.Parse(text, s.comp.Width())
	s.comp.SetPrompt(s.prompt)
	s.bridge.RequestFullRender()
}

// ReloadConfig hands a freshly loaded config to the editing loop. Safe to
// call from the watcher goroutine; a newer config replaces a pending one, and
// the loop applies it between keystrokes.
func (s *Session) ReloadConfig(cfg *config.Config) {
	select {
	case <-s.cfgCh:
	default:
	}
	s.cfgCh <- cfg
}

// ApplyConfig picks up a live-reloaded config: undo merge settings apply to
// the current stack, history trimming applies immediately, and the
// compositor gets its theme/highlight update. Must run on the editing loop.
func (s *Session) ApplyConfig(cfg *config.Config) {
	s.cfg = cfg
	s.buf.Undo.SetMerge(cfg.MergeSimilar, cfg.MergeTimeout())
	if n := cfg.HistorySize; n > 0 && len(s.history) > n {
		s.history = s.history[len(s.history)-n:]
	}
	s.comp.ApplyConfig(cfg)
	s.bridge.RequestFullRender()
}

// Bridge exposes the sync state for status displays and tests.
func (s *Session) Bridge() *display.Bridge { return s.bridge }

// History returns the accepted lines, oldest first.
func (s *Session) History() []string { return s.history }

// ReadLine runs the edit loop until the line is accepted or abandoned. The
// buffer survives render errors: a failed push to the compositor leaves
// typed input intact and is retried on the next keystroke.
func (s *Session) ReadLine() (string, error) {
	s.done = false
	s.result = ""
	s.err = nil
	s.buf.Reset()
	s.histPos = len(s.history)
	s.histStash = ""
	s.refresh()

	for !s.done {
		// A queued config reload is applied before the next keystroke is
		// taken, so it can never race with key handling.
		select {
		case cfg := <-s.cfgCh:
			s.ApplyConfig(cfg)
			s.refresh()
			continue
		default:
		}
		select {
		case cfg := <-s.cfgCh:
			s.ApplyConfig(cfg)
			s.refresh()
		case ev, ok := <-s.keys:
			if !ok {
				return "", ErrEOF
			}
			s.handleKey(ev)
			if !s.done {
				s.refresh()
			}
		}
	}
	return s.result, s.err
}

// refresh pushes the current buffer and cursor through the bridge. Render
// failures are surfaced on the status row and counted by the bridge; the
// editing session continues regardless.
func (s *Session) refresh() {
	if s.refreshing {
		return
	}
	s.refreshing = true
	defer func() { s.refreshing = false }()

	cur := display.CursorPosition{
		ByteOffset: s.buf.Cursor.Byte,
		CharOffset: s.buf.Cursor.Char,
		Valid:      true,
	}
	err := s.bridge.SendOutput(s.buf.Text(), cur, s.prompt.Geometry.LastLineWidth)
	if err != nil {
		s.comp.SetStatus(fmt.Sprintf("render error (%d consecutive): %v",
			s.bridge.ConsecutiveErrors(), err), true)
		return
	}
	if s.bridge.State() == display.SyncComplete && s.bridge.ConsecutiveErrors() == 0 {
		s.comp.SetStatus("", false)
	}
}

func (s *Session) accept() {
	line := s.buf.Text()
	if line != "" {
		s.history = append(s.history, line)
		if n := s.cfg.HistorySize; n > 0 && len(s.history) > n {
			s.history = s.history[len(s.history)-n:]
		}
	}
	s.result = line
	s.done = true
}

func (s *Session) historyUp() {
	if s.histPos == 0 {
		return
	}
	if s.histPos == len(s.history) {
		s.histStash = s.buf.Text()
	}
	s.histPos--
	s.buf.SetText(s.history[s.histPos])
}

func (s *Session) historyDown() {
	if s.histPos >= len(s.history) {
		return
	}
	s.histPos++
	if s.histPos == len(s.history) {
		s.buf.SetText(s.histStash)
		return
	}
	s.buf.SetText(s.history[s.histPos])
}

func (s *Session) killToEnd() {
	if ed, ok := s.buf.DeleteRange(s.buf.Len()); ok {
		s.lastKill = ed.Text
		clipboardx.Write(ed.Text)
	}
}

func (s *Session) killToStart() {
	if ed, ok := s.buf.DeleteRange(0); ok {
		s.lastKill = ed.Text
		clipboardx.Write(ed.Text)
	}
}

func (s *Session) killWordLeft() {
	boundary := s.buf.WordLeftBoundary()
	if ed, ok := s.buf.DeleteRange(boundary.Byte); ok {
		s.lastKill = ed.Text
		clipboardx.Write(ed.Text)
	}
}

func (s *Session) yank() {
	text := clipboardx.Read()
	if text == "" {
		text = s.lastKill
	}
	if text != "" {
		s.buf.InsertText(text)
	}
}
