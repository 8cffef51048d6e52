package term

import (
	"testing"

	"lineedit/config"
	"lineedit/highlight"

	"github.com/gdamore/tcell/v2"
)

func TestCommandStylesCoverEveryByte(t *testing.T) {
	s := &Screen{
		theme:   config.Themes["dark"],
		hl:      highlight.New("dark"),
		command: `echo "hi" # note`,
	}
	base := tcell.StyleDefault.Foreground(s.theme.Command).Background(s.theme.Background)
	styles := s.commandStyles(base)
	if styles == nil {
		t.Fatalf("expected a style table when highlighting is on")
	}
	if len(styles) != len(s.command) {
		t.Fatalf("expected %d per-byte styles, got %d", len(s.command), len(styles))
	}
	for i, st := range styles {
		_, bg, _ := st.Decompose()
		if bg != s.theme.Background {
			t.Fatalf("byte %d lost the theme background", i)
		}
	}
}

func TestCommandStylesNilWhenHighlightingOff(t *testing.T) {
	s := &Screen{theme: config.Themes["dark"], command: "ls"}
	if styles := s.commandStyles(tcell.StyleDefault); styles != nil {
		t.Fatalf("expected nil style table without a highlighter")
	}
	s = &Screen{theme: config.Themes["dark"], hl: highlight.New("dark")}
	if styles := s.commandStyles(tcell.StyleDefault); styles != nil {
		t.Fatalf("expected nil style table for empty command")
	}
}
