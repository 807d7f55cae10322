package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// configNames are tried in order inside the .arbor directory.
var configNames = []string{"config.yaml", "config.yml", "config.toml"}

// Discover finds the project root by walking up from dir and loads its
// config. Without a project it returns Default with an empty root.
// Relative paths in the result are resolved against the project root.
func Discover(dir string) (Config, string, error) {
	root, ok := findArborRoot(dir)
	if !ok {
		return Default(), "", nil
	}

	cfg := Default()
	if path, ok := FindConfigFile(root); ok {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return Config{}, root, err
		}
		cfg = loaded
	}
	cfg.Resolve(root)
	return cfg, root, nil
}

// DetectCurrentProject attempts to find the current project by walking
// up from the current directory looking for .arbor/.
func DetectCurrentProject() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return findArborRoot(dir)
}

// FindConfigFile returns the first config file present in root/.arbor.
func FindConfigFile(root string) (string, bool) {
	for _, name := range configNames {
		path := filepath.Join(root, DirName, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// findArborRoot walks up from dir looking for a .arbor/ directory.
func findArborRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		stateDir := filepath.Join(dir, DirName)
		if info, err := os.Stat(stateDir); err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

// ScanOutlines walks root up to maxDepth levels deep and returns outline
// documents (*.outline.yaml, *.outline.yml, *.outline.json), sorted.
func ScanOutlines(root string, maxDepth int) []string {
	root = expandHome(root)
	if maxDepth <= 0 {
		maxDepth = 3
	}
	var results []string

	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		if d.IsDir() {
			currentDepth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
			if currentDepth > maxDepth {
				return filepath.SkipDir
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsOutlineFile(d.Name()) {
			results = append(results, path)
		}
		return nil
	})

	sort.Strings(results)
	return results
}

// IsOutlineFile reports whether name looks like an outline document.
func IsOutlineFile(name string) bool {
	name = strings.ToLower(name)
	for _, ext := range []string{".outline.yaml", ".outline.yml", ".outline.json"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
