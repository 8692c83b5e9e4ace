package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigPathFromEnv(t *testing.T) {
	t.Setenv("GRADENOTIFY_CONFIG", "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", DefaultConfigPath())
}

func TestDefaultConfigPathUserDir(t *testing.T) {
	t.Setenv("GRADENOTIFY_CONFIG", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	assert.Equal(t, filepath.Join(home, ".config", "gradenotify", "config.yaml"), DefaultConfigPath())
}
