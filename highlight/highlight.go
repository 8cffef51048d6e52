package highlight

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/gdamore/tcell/v2"
)

// Token is a styled span of the command line.
type Token struct {
	Text  string
	Style tcell.Style
}

type cacheEntry struct {
	tokens []Token
	when   time.Time
}

// cacheTTL keeps entries only briefly: the same line is re-highlighted on
// every keystroke echo, but stale entries must not outlive a theme change
// settling or a long session.
const cacheTTL = 2 * time.Second

const cacheSweepSize = 128

// Highlighter colorizes shell command lines with chroma's bash lexer.
// Results are cached keyed by theme name and line hash, with a short TTL.
type Highlighter struct {
	theme string
	lexer chroma.Lexer
	cache map[string]cacheEntry
}

func New(theme string) *Highlighter {
	lexer := lexers.Get("bash")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return &Highlighter{
		theme: theme,
		lexer: chroma.Coalesce(lexer),
		cache: make(map[string]cacheEntry),
	}
}

// SetTheme switches the theme used in cache keys. Old entries age out via
// the TTL; there is nothing to invalidate eagerly.
func (h *Highlighter) SetTheme(theme string) {
	h.theme = theme
}

// Highlight tokenizes line and returns styled spans covering the whole
// string in order. On lexer failure the line comes back as one unstyled
// token.
func (h *Highlighter) Highlight(line string) []Token {
	if line == "" {
		return nil
	}
	key := fmt.Sprintf("%s:%x", h.theme, sha256.Sum256([]byte(line)))
	if ent, ok := h.cache[key]; ok && time.Since(ent.when) < cacheTTL {
		return ent.tokens
	}

	iter, err := h.lexer.Tokenise(nil, line)
	if err != nil {
		return []Token{{Text: line, Style: tcell.StyleDefault}}
	}
	var tokens []Token
	for _, tok := range iter.Tokens() {
		if tok.Value == "" {
			continue
		}
		tokens = append(tokens, Token{Text: tok.Value, Style: tokenStyle(tok.Type)})
	}

	if len(h.cache) >= cacheSweepSize {
		h.sweep()
	}
	h.cache[key] = cacheEntry{tokens: tokens, when: time.Now()}
	return tokens
}

func (h *Highlighter) sweep() {
	now := time.Now()
	for k, ent := range h.cache {
		if now.Sub(ent.when) >= cacheTTL {
			delete(h.cache, k)
		}
	}
}

func tokenStyle(t chroma.TokenType) tcell.Style {
	base := tcell.StyleDefault
	switch {
	case t.InCategory(chroma.Keyword):
		return base.Foreground(tcell.ColorBlue).Bold(true)
	case t.InSubCategory(chroma.NameBuiltin):
		return base.Foreground(tcell.ColorTeal)
	case t.InSubCategory(chroma.LiteralString):
		return base.Foreground(tcell.ColorGreen)
	case t.InSubCategory(chroma.LiteralNumber):
		return base.Foreground(tcell.ColorDarkCyan)
	case t.InCategory(chroma.Comment):
		return base.Foreground(tcell.ColorGray).Italic(true)
	case t.InCategory(chroma.Operator):
		return base.Foreground(tcell.ColorYellow)
	case t.InSubCategory(chroma.NameVariable):
		return base.Foreground(tcell.ColorFuchsia)
	default:
		return base
	}
}
