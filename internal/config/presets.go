package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Preset is a named strategy file from the presets directory.
type Preset struct {
	// ID is the file name without extension (e.g. "conservative.yaml" -> "conservative").
	ID       string
	File     string
	Strategy StrategyConfig
}

// ListPresets loads every *.yaml preset in dir, sorted by ID. A missing directory
// yields an empty list; unreadable files are reported in skipped and left out.
func ListPresets(dir string) (presets []Preset, skipped map[string]error, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		path := filepath.Join(dir, name)
		s, loadErr := LoadStrategyFile(path)
		if loadErr != nil {
			if skipped == nil {
				skipped = map[string]error{}
			}
			skipped[path] = loadErr
			continue
		}
		id := strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		if s.Name == "" {
			s.Name = "zscore"
		}
		presets = append(presets, Preset{ID: id, File: path, Strategy: s})
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].ID < presets[j].ID })
	return presets, skipped, nil
}

// PresetsDir resolves the presets directory: PRESETS_DIR, else ./examples/presets.
func PresetsDir() string {
	dir := os.Getenv("PRESETS_DIR")
	if dir == "" {
		dir = filepath.Join("examples", "presets")
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir
}
