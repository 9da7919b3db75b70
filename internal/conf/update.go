package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FindConfigFile locates the on-disk config.yaml across the standard
// search paths, the way the original config-update handler does before
// editing the file in place.
func FindConfigFile() (string, error) {
	dirs, err := DefaultConfigPaths()
	if err != nil {
		return "", fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, dir := range dirs {
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("config file not found")
}

// UpdateConfigFile sets one or more dotted keys (e.g. "paths.soundpack")
// inside an on-disk YAML config file, preserving every untouched node, then
// writes it back.
func UpdateConfigFile(path string, updates map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal config file: %w", err)
	}
	if len(doc.Content) == 0 {
		return fmt.Errorf("config file %q has no top-level mapping", path)
	}

	for key, value := range updates {
		if node := findChildNodeByKey(key, doc.Content[0]); node != nil {
			node.Value = value
		}
	}

	modified, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal updated config: %w", err)
	}
	if err := os.WriteFile(path, modified, 0o644); err != nil {
		return fmt.Errorf("failed to write updated config: %w", err)
	}
	return nil
}

// findChildNodeByKey walks a dotted key ("paths.soundpack") through nested
// YAML mapping nodes and returns the scalar value node at the end.
func findChildNodeByKey(key string, node *yaml.Node) *yaml.Node {
	components := strings.Split(key, ".")

	var find func(int, *yaml.Node) *yaml.Node
	find = func(index int, n *yaml.Node) *yaml.Node {
		if n.Kind == yaml.MappingNode {
			for i := 0; i < len(n.Content); i += 2 {
				if n.Content[i].Value == components[index] {
					if index == len(components)-1 {
						return n.Content[i+1]
					}
					return find(index+1, n.Content[i+1])
				}
			}
		}
		return nil
	}
	return find(0, node)
}
