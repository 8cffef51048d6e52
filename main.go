package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"lineedit/config"
	"lineedit/editor"
	"lineedit/term"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	screen, err := term.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer screen.Close()

	session, err := editor.NewSession(cfg, screen, screen.Keys())
	if err != nil {
		screen.Close()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	session.SetPrompt("\x01\x1b[1;32m\x02lineedit\x01\x1b[0m\x02> ")

	// Live config reload: theme, undo merge window, highlight toggle. The
	// watcher only queues the config; the session applies it on its own loop.
	watcher, err := config.Watch(func(updated *config.Config) {
		session.ReloadConfig(updated)
	})
	if err != nil {
		screen.SetStatus(fmt.Sprintf("config watch: %v", err), true)
	}
	defer watcher.Close()

	for {
		line, err := session.ReadLine()
		switch {
		case errors.Is(err, editor.ErrEOF):
			return
		case errors.Is(err, editor.ErrInterrupted):
			continue
		case err != nil:
			screen.SetStatus(err.Error(), true)
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" {
			return
		}

		// Leave the screen while the command runs so its output goes to
		// the real terminal, then take it back.
		if err := screen.Suspend(); err != nil {
			screen.SetStatus(err.Error(), true)
			continue
		}
		if err := runCommand(line); err != nil {
			fmt.Fprintf(os.Stderr, "lineedit: %v\n", err)
		}
		if err := screen.Resume(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
	}
}
