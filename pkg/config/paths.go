package config

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigDirName = "gradenotify"
	defaultConfigFile    = "config.yaml"
)

func DefaultConfigPath() string {
	if env := os.Getenv("GRADENOTIFY_CONFIG"); env != "" {
		return env
	}
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName, defaultConfigFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gradenotify", defaultConfigFile)
}
