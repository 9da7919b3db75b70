package conf

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultConfigPaths returns, in priority order, the directories this OS
// searches for config.yaml / default-paths.ini / default-volumes.ini.
func DefaultConfigPaths() ([]string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("error fetching executable path: %w", err)
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		return []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "soundsense-go"),
		}, nil
	default:
		return []string{
			filepath.Join(homeDir, ".config", "soundsense-go"),
			"/etc/soundsense-go",
		}, nil
	}
}

// PathSettings is the parsed content of default-paths.ini: its
// "gamelog"/"soundpack"/"ignore" keys.
type PathSettings struct {
	Gamelog   string
	Soundpack string
	Ignore    string
}

// ReadPathsFile parses a default-paths.ini file. The grammar is a plain
// line-oriented key=value with whitespace-sensitive values (raw filesystem
// paths may contain spaces), which is why this is hand-rolled instead of
// routed through viper's ini support (see package doc).
func ReadPathsFile(path string) (PathSettings, error) {
	var ps PathSettings
	pairs, err := readKeyValueLines(path)
	if err != nil {
		return ps, err
	}
	for k, v := range pairs {
		switch k {
		case "gamelog":
			ps.Gamelog = v
		case "soundpack":
			ps.Soundpack = v
		case "ignore":
			ps.Ignore = v
		}
	}
	return ps, nil
}

// readKeyValueLines reads "key=value" lines, splitting on the first '='
// only and preserving everything after it verbatim (no trimming of the
// value, since paths may legitimately have trailing spaces on some
// filesystems). Blank lines and lines starting with '#' are skipped.
func readKeyValueLines(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := line[idx+1:]
		out[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolvePath applies the per-path resolution order: an explicit flag
// value, else a default-paths.ini entry, else fallback, skipping any step
// whose file/dir does not exist.
func ResolvePath(flagValue, iniValue, fallback string) string {
	for _, candidate := range []string{flagValue, iniValue, fallback} {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
