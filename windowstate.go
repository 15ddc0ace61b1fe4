package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// windowState remembers the window's last position between runs.
type windowState struct {
	X *int `json:"x,omitempty"`
	Y *int `json:"y,omitempty"`
}

func windowStatePath() string {
	return filepath.Join(configDir(), "window-state.json")
}

// loadWindowState reads the persisted position, or an empty state when none
// exists or the file is damaged.
func loadWindowState() windowState {
	var state windowState
	data, err := os.ReadFile(windowStatePath())
	if err != nil {
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return windowState{}
	}
	return state
}

// saveWindowState persists the position for the next run. Best effort.
func saveWindowState(x, y int) error {
	if err := os.MkdirAll(configDir(), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(windowState{X: &x, Y: &y})
	if err != nil {
		return err
	}
	return os.WriteFile(windowStatePath(), append(data, '\n'), 0o644)
}
