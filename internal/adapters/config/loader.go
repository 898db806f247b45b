// Package config provides the tool settings loader for nixplan.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/nixplan/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Filename is the tool settings file looked up in the working directory.
const Filename = "nixplan.yaml"

// Loader implements ports.SettingsLoader using a YAML file.
type Loader struct{}

// NewLoader creates a new settings Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// settingsDTO mirrors the nixplan.yaml schema.
type settingsDTO struct {
	Channel     string   `yaml:"channel"`
	Systems     []string `yaml:"systems"`
	Parallelism int      `yaml:"parallelism"`
	CacheDir    string   `yaml:"cacheDir"`
	PlanFile    string   `yaml:"planFile"`
}

// Load reads nixplan.yaml from the given working directory.
// A missing file yields defaults.
func (l *Loader) Load(cwd string) (*domain.Settings, error) {
	settings := defaults()

	path := filepath.Join(cwd, Filename)
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the user's cwd
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return nil, zerr.Wrap(err, "failed to read settings file")
	}

	var dto settingsDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, zerr.Wrap(err, "failed to parse settings file")
	}

	if dto.Channel != "" {
		settings.Channel = dto.Channel
	}
	if len(dto.Systems) > 0 {
		settings.Systems = dto.Systems
	}
	if dto.Parallelism > 0 {
		settings.Parallelism = dto.Parallelism
	}
	if dto.CacheDir != "" {
		settings.CacheDir = dto.CacheDir
	}
	if dto.PlanFile != "" {
		settings.PlanFile = dto.PlanFile
	}

	return settings, nil
}

func defaults() *domain.Settings {
	return &domain.Settings{
		Channel:  "stable",
		PlanFile: "nixplan.nix",
	}
}
