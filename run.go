package main

import (
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// runCommand executes the accepted line under a pty so child programs see a
// terminal (colors, progress bars, isatty checks). Output is copied to
// stdout until the child exits.
func runCommand(line string) error {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.Command(shell, "-c", line)

	f, err := pty.Start(cmd)
	if err != nil {
		// No pty available (rare); fall back to plain pipes.
		cmd := exec.Command(shell, "-c", line)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
	defer f.Close()

	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		_ = pty.Setsize(f, &pty.Winsize{Rows: uint16(h), Cols: uint16(w)})
	}

	// The pty master returns EIO when the child closes its side; that is
	// normal termination, not a copy failure.
	if _, err := io.Copy(os.Stdout, f); err != nil && !errors.Is(err, io.EOF) {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return err
		}
	}
	return cmd.Wait()
}
