// Package conf loads and exposes runtime settings: the YAML config file
// (viper-backed, like the rest of this ecosystem), plus the two legacy
// .ini-style files soundpacks and installs still ship (default-paths.ini,
// default-volumes.ini), which are deliberately NOT run through viper (see
// paths.go).
package conf

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// Settings is the full set of tunables for one run of the engine.
type Settings struct {
	Debug bool

	Paths struct {
		Gamelog   string
		Soundpack string
		Ignore    string
		NoConfig  bool
	}

	Audio struct {
		SampleRate int
		Channels   int
	}

	Log LogConfig
}

// LogConfig mirrors the rotation policy shape internal/logging expects.
type LogConfig struct {
	Enabled     bool
	Path        string
	Rotation    string // "daily", "weekly", "size"
	MaxSizeMB   int
	RotationDay int // 0=Sunday, used only when Rotation=="weekly"
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load initializes viper against the embedded defaults plus any config.yaml
// found on the standard search paths, then unmarshals into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	settingsInstance = settings
	return settings, nil
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := DefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config.yaml on disk: the defaults set above are enough to
			// run, so this is not an error.
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

func setDefaultConfig() {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return
	}
	viper.SetConfigType("yaml")
	_ = viper.MergeConfig(bytes.NewReader(data))
}

// Setting returns the process-wide settings instance, loading it on first
// use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				settingsInstance = &Settings{}
			}
		}
	})
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// DefaultPathsFile returns where default-paths.ini lives for this OS.
func DefaultPathsFile() (string, error) {
	dirs, err := DefaultConfigPaths()
	if err != nil {
		return "", err
	}
	return filepath.Join(dirs[0], "default-paths.ini"), nil
}

// DefaultVolumesFile returns where default-volumes.ini lives for this OS.
func DefaultVolumesFile() (string, error) {
	dirs, err := DefaultConfigPaths()
	if err != nil {
		return "", err
	}
	return filepath.Join(dirs[0], "default-volumes.ini"), nil
}
