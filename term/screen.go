package term

import (
	"errors"
	"time"
	"unicode/utf8"

	"lineedit/config"
	"lineedit/highlight"
	"lineedit/prompt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

var errClosed = errors.New("term: screen is closed")

// Screen owns the tcell screen and implements the compositor contract: it
// holds the command-layer state (text, cursor) pushed by the bridge and is
// the only place actual terminal writes happen.
type Screen struct {
	screen   tcell.Screen
	theme    *config.Theme
	hl       *highlight.Highlighter
	tabWidth int

	prompt        *prompt.Prompt
	command       string
	cursorRow     int
	cursorCol     int
	cursorValid   bool
	status        string
	statusIsError bool

	keys   chan *tcell.EventKey
	disp   chan tcell.Event
	quit   chan struct{}
	closed bool
}

func New(cfg *config.Config) (*Screen, error) {
	sc, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := sc.Init(); err != nil {
		return nil, err
	}
	theme := cfg.GetTheme()
	sc.SetStyle(tcell.StyleDefault.Background(theme.Background).Foreground(theme.Foreground))
	sc.Clear()

	s := &Screen{
		screen:   sc,
		theme:    theme,
		tabWidth: cfg.TabWidth,
		keys:     make(chan *tcell.EventKey, 64),
		disp:     make(chan tcell.Event, 64),
		quit:     make(chan struct{}),
	}
	if cfg.Highlight {
		s.hl = highlight.New(cfg.Theme)
	}

	events := make(chan tcell.Event, 64)
	go sc.ChannelEvents(events, s.quit)
	go s.route(events)
	return s, nil
}

// route splits the tcell event stream: keys go to the editing loop, display
// events (resize, paste, interrupts) to the drain handled by ProcessPending.
func (s *Screen) route(events <-chan tcell.Event) {
	for ev := range events {
		switch ev := ev.(type) {
		case *tcell.EventKey:
			s.keys <- ev
		default:
			select {
			case s.disp <- ev:
			default:
				// display events are advisory; dropping one under
				// pressure only delays a redraw
			}
		}
	}
	close(s.keys)
}

// Keys is the keystroke stream consumed by the editor session.
func (s *Screen) Keys() <-chan *tcell.EventKey { return s.keys }

// SetPrompt installs a parsed prompt and redraws.
func (s *Screen) SetPrompt(p *prompt.Prompt) {
	s.prompt = p
	s.redraw()
}

// ApplyConfig picks up theme and highlight changes from a reloaded config.
func (s *Screen) ApplyConfig(cfg *config.Config) {
	s.theme = cfg.GetTheme()
	s.tabWidth = cfg.TabWidth
	if cfg.Highlight {
		if s.hl == nil {
			s.hl = highlight.New(cfg.Theme)
		} else {
			s.hl.SetTheme(cfg.Theme)
		}
	} else {
		s.hl = nil
	}
	s.screen.SetStyle(tcell.StyleDefault.Background(s.theme.Background).Foreground(s.theme.Foreground))
	s.redraw()
}

// SetStatus shows a message on the bottom screen row until the next call.
func (s *Screen) SetStatus(msg string, isError bool) {
	s.status = msg
	s.statusIsError = isError
	s.redraw()
}

// SetCommand implements the command-layer contract: store the new text and
// repaint.
func (s *Screen) SetCommand(text string, cursorByte int) error {
	if s.closed {
		return errClosed
	}
	s.command = text
	s.redraw()
	return nil
}

func (s *Screen) SetCursorPosition(row, col int) {
	s.cursorRow = row
	s.cursorCol = col
	s.cursorValid = true
}

func (s *Screen) InvalidateCursor() {
	s.cursorValid = false
	s.screen.HideCursor()
}

// ProcessPending drains at most maxEvents display events without exceeding
// timeout, so a flood of resizes can never stall keystroke handling.
func (s *Screen) ProcessPending(maxEvents int, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for i := 0; i < maxEvents; i++ {
		if time.Now().After(deadline) {
			return
		}
		select {
		case ev, ok := <-s.disp:
			if !ok {
				return
			}
			if _, resized := ev.(*tcell.EventResize); resized {
				s.screen.Sync()
				s.redraw()
			}
		default:
			return
		}
	}
}

func (s *Screen) Width() int {
	w, _ := s.screen.Size()
	return w
}

func (s *Screen) Suspend() error { return s.screen.Suspend() }
func (s *Screen) Resume() error  { return s.screen.Resume() }

func (s *Screen) Close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.quit)
	s.screen.Fini()
}

// redraw repaints prompt, command text and status from the stored state.
func (s *Screen) redraw() {
	w, h := s.screen.Size()
	if w <= 0 {
		return
	}
	s.screen.Clear()

	promptHeight := 0
	lastLineWidth := 0
	if s.prompt != nil {
		promptStyle := tcell.StyleDefault.Foreground(s.theme.Prompt).Background(s.theme.Background)
		for i, line := range s.prompt.Lines {
			s.drawPlain(0, i, prompt.StripEscapes(line.Text), promptStyle)
		}
		promptHeight = s.prompt.Geometry.Height
		lastLineWidth = s.prompt.Geometry.LastLineWidth
	}

	baseRow := promptHeight - 1
	if baseRow < 0 {
		baseRow = 0
	}
	s.drawCommand(lastLineWidth, baseRow, w)

	if s.status != "" {
		style := tcell.StyleDefault.Foreground(s.theme.Status).Background(s.theme.Background)
		if s.statusIsError {
			style = style.Foreground(s.theme.Error)
		}
		s.drawPlain(0, h-1, s.status, style)
	}

	if s.cursorValid {
		s.screen.ShowCursor(s.cursorCol, baseRow+s.cursorRow)
	} else {
		s.screen.HideCursor()
	}
	s.screen.Show()
}

// drawPlain renders s as a single unwrapped row.
func (s *Screen) drawPlain(x, y int, text string, style tcell.Style) {
	rest := text
	for len(rest) > 0 {
		cluster, tail, _, _ := uniseg.FirstGraphemeClusterInString(rest, -1)
		runes := []rune(cluster)
		s.screen.SetContent(x, y, runes[0], runes[1:], style)
		base, _ := utf8.DecodeRuneInString(cluster)
		x += runewidth.RuneWidth(base)
		rest = tail
	}
}

// drawCommand renders the command text starting at column startX of row
// baseRow, wrapping with the same walk the cursor position engine uses so
// the drawn glyphs and the computed cursor cell always agree.
func (s *Screen) drawCommand(startX, baseRow, width int) {
	cmdStyle := tcell.StyleDefault.Foreground(s.theme.Command).Background(s.theme.Background)
	styles := s.commandStyles(cmdStyle)

	x, y := startX, baseRow
	rest := s.command
	off := 0
	for len(rest) > 0 {
		c := rest[0]
		switch {
		case c == 0x1b, c == 0x01, c == 0x02:
			// zero-width, same as the position engine
			n := prompt.EscapeLen(rest)
			rest = rest[n:]
			off += n
		case c == '\n':
			x = 0
			y++
			rest = rest[1:]
			off++
		case c == '\r':
			x = 0
			rest = rest[1:]
			off++
		case c == '\t':
			x = x - x%s.tabWidth + s.tabWidth
			if x >= width {
				y += x / width
				x %= width
			}
			rest = rest[1:]
			off++
		default:
			cluster, tail, _, _ := uniseg.FirstGraphemeClusterInString(rest, -1)
			runes := []rune(cluster)
			base, _ := utf8.DecodeRuneInString(cluster)
			style := cmdStyle
			if styles != nil && off < len(styles) {
				style = styles[off]
			}
			s.screen.SetContent(x, y, runes[0], runes[1:], style)
			x += runewidth.RuneWidth(base)
			if x >= width {
				x = 0
				y++
			}
			off += len(cluster)
			rest = tail
		}
	}
}

// commandStyles expands highlight tokens into a per-byte style table for the
// current command text. Returns nil when highlighting is off.
func (s *Screen) commandStyles(base tcell.Style) []tcell.Style {
	if s.hl == nil || s.command == "" {
		return nil
	}
	tokens := s.hl.Highlight(s.command)
	if tokens == nil {
		return nil
	}
	styles := make([]tcell.Style, len(s.command))
	for i := range styles {
		styles[i] = base
	}
	off := 0
	for _, tok := range tokens {
		for i := 0; i < len(tok.Text) && off < len(styles); i++ {
			st := tok.Style
			if st == tcell.StyleDefault {
				st = base
			}
			styles[off] = st.Background(s.theme.Background)
			off++
		}
	}
	return styles
}
