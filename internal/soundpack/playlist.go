package soundpack

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var plsEntry = regexp.MustCompile(`^File.+=(.+)$`)

// expandPlaylist reads an .m3u or .pls file and returns the ordered list of
// referenced paths, resolved relative to the playlist's own directory.
func expandPlaylist(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dir := filepath.Dir(path)
	var paths []string
	scanner := bufio.NewScanner(f)
	switch ext {
	case ".m3u":
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "#EXT") {
				continue
			}
			paths = append(paths, resolveRelative(dir, line))
		}
	case ".pls":
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			m := plsEntry.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			paths = append(paths, resolveRelative(dir, m[1]))
		}
	default:
		return nil, fmt.Errorf("unsupported playlist extension %q", ext)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

func resolveRelative(dir, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(dir, ref)
}
