package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"
)

type Config struct {
	TabWidth       int    `json:"tab_width"`
	UndoCapacity   int    `json:"undo_capacity"`
	MergeSimilar   bool   `json:"merge_similar"`
	MergeTimeoutMs int    `json:"merge_timeout_ms"`
	Theme          string `json:"theme"`
	Highlight      bool   `json:"highlight"`
	HistorySize    int    `json:"history_size"`
	MaxEvents      int    `json:"max_events"`
	EventTimeoutMs int    `json:"event_timeout_ms"`
}

func Default() *Config {
	return &Config{
		TabWidth:       8,
		UndoCapacity:   100,
		MergeSimilar:   true,
		MergeTimeoutMs: 300,
		Theme:          "dark",
		Highlight:      true,
		HistorySize:    500,
		MaxEvents:      64,
		EventTimeoutMs: 10,
	}
}

func (c *Config) MergeTimeout() time.Duration {
	return time.Duration(c.MergeTimeoutMs) * time.Millisecond
}

func (c *Config) EventTimeout() time.Duration {
	return time.Duration(c.EventTimeoutMs) * time.Millisecond
}

// Path returns the config file location under the user config dir.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "lineedit", "config.json")
}

// Load reads the config file, filling unset fields from Default. A missing
// file is not an error; callers get the defaults.
func Load() (*Config, error) {
	cfg := Default()
	path := Path()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return Default(), err
	}
	cfg.clamp()
	return cfg, nil
}

// Save writes the config as indented JSON, creating the directory if needed.
func (c *Config) Save() error {
	path := Path()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) clamp() {
	if c.TabWidth <= 0 {
		c.TabWidth = 8
	}
	if c.UndoCapacity <= 0 {
		c.UndoCapacity = 100
	}
	if c.MergeTimeoutMs <= 0 {
		c.MergeTimeoutMs = 300
	}
	if c.HistorySize < 0 {
		c.HistorySize = 0
	}
	if c.MaxEvents <= 0 {
		c.MaxEvents = 64
	}
	if c.EventTimeoutMs <= 0 {
		c.EventTimeoutMs = 10
	}
}

// Theme colors the three regions the line editor draws.
type Theme struct {
	Name       string
	Background tcell.Color
	Foreground tcell.Color
	Prompt     tcell.Color
	Command    tcell.Color
	Status     tcell.Color
	Error      tcell.Color
}

var Themes = map[string]*Theme{
	"dark": {
		Name:       "Dark",
		Background: tcell.ColorBlack,
		Foreground: tcell.ColorWhite,
		Prompt:     tcell.ColorGreen,
		Command:    tcell.ColorWhite,
		Status:     tcell.ColorGray,
		Error:      tcell.ColorRed,
	},
	"light": {
		Name:       "Light",
		Background: tcell.ColorWhite,
		Foreground: tcell.ColorBlack,
		Prompt:     tcell.ColorDarkBlue,
		Command:    tcell.ColorBlack,
		Status:     tcell.ColorGray,
		Error:      tcell.ColorDarkRed,
	},
}

// GetTheme resolves the configured theme, falling back to dark.
func (c *Config) GetTheme() *Theme {
	if t, ok := Themes[c.Theme]; ok {
		return t
	}
	return Themes["dark"]
}
