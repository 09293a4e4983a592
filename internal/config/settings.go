// Package config loads the optional league settings file. Everything has a
// sensible default; the file only exists to override league-specific
// numbers like the budget or the default formation targets.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fennih/fantahustler/internal/logger"
)

// Settings holds the league-level tunables
type Settings struct {
	BudgetMax        int      `yaml:"budgetMax"`
	TargetRosterSize int      `yaml:"targetRosterSize"`
	DefaultTargets   []string `yaml:"defaultTargets"`
}

// Default returns the standard MANTRA league settings
func Default() Settings {
	return Settings{
		BudgetMax:        600,
		TargetRosterSize: 32,
		DefaultTargets:   []string{"4-2-3-1"},
	}
}

// Load reads settings from a YAML file. A missing file is not an error:
// defaults apply. A present but malformed file is an error, so a typo in
// league config never silently falls back.
func Load(path string) (Settings, error) {
	settings := Default()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("Settings file not found, using defaults", "path", path)
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings file: %w", err)
	}

	if settings.BudgetMax <= 0 {
		settings.BudgetMax = Default().BudgetMax
	}
	if settings.TargetRosterSize <= 0 {
		settings.TargetRosterSize = Default().TargetRosterSize
	}
	if len(settings.DefaultTargets) == 0 {
		settings.DefaultTargets = Default().DefaultTargets
	}

	logger.Info("Settings loaded", "path", path, "budgetMax", settings.BudgetMax)
	return settings, nil
}
