package clipboardx

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
)

// internalClipboard backs kill/yank when no system clipboard is reachable
// (headless sessions, containers).
var internalClipboard string

// Write stores killed text. It always updates the internal fallback, and
// additionally tries the system clipboard and an OSC 52 escape so terminal
// multiplexers and SSH clients can pick it up.
func Write(text string) bool {
	internalClipboard = text
	ok := false
	if err := clipboard.WriteAll(text); err == nil {
		ok = true
	}
	if writeOSC52(text) {
		ok = true
	}
	return ok
}

// Read returns the system clipboard when available, otherwise the last
// killed text.
func Read() string {
	if text, err := clipboard.ReadAll(); err == nil && text != "" {
		return text
	}
	return internalClipboard
}

func writeOSC52(text string) bool {
	if text == "" {
		return false
	}
	if fi, err := os.Stdout.Stat(); err != nil || (fi.Mode()&os.ModeCharDevice) == 0 {
		return false
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	_, err := fmt.Fprintf(os.Stdout, "\x1b]52;c;%s\x07", encoded)
	return err == nil
}
