package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateConfigFilePreservesUntouchedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: false\npaths:\n  soundpack: \"./soundpack\"\n  gamelog: \"./gamelog.txt\"\n"), 0o644))

	err := UpdateConfigFile(path, map[string]string{"paths.soundpack": "/opt/packs/dwarf"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "soundpack: /opt/packs/dwarf")
	assert.Contains(t, content, "gamelog: ./gamelog.txt")
	assert.Contains(t, content, "debug: false")
}

func TestUpdateConfigFileIgnoresUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: false\n"), 0o644))

	err := UpdateConfigFile(path, map[string]string{"nonexistent.key": "x"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug: false")
}

func TestUpdateConfigFileErrorsOnMissingFile(t *testing.T) {
	err := UpdateConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), map[string]string{"a": "b"})
	assert.Error(t, err)
}

func TestFindChildNodeByKeyWalksNestedMappings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  rotation: daily\n  maxsizemb: 10\n"), 0o644))

	require.NoError(t, UpdateConfigFile(path, map[string]string{"log.rotation": "weekly"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rotation: weekly")
	assert.Contains(t, string(data), "maxsizemb: 10")
}
