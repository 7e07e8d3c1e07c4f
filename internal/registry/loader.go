package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"llamachat/internal/common/fsutil"
)

// Entry is a model file found on disk.
type Entry struct {
	Name string
	Path string
	Size int64
}

// LoadDir scans a directory for *.gguf files. Entries are sorted by name and
// carry absolute paths.
func LoadDir(dir string) ([]Entry, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []Entry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		models = append(models, Entry{Name: name, Path: filepath.Join(abs, name), Size: size})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models, nil
}

// Resolve turns a --model-path value into a model file path. A directory
// resolves to the single *.gguf inside it; anything else is returned expanded
// but otherwise untouched so the load step can report on it.
func Resolve(path string) (string, error) {
	p, err := fsutil.ExpandHome(strings.TrimSpace(path))
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(p)
	if err != nil || !fi.IsDir() {
		return p, nil
	}
	models, err := LoadDir(p)
	if err != nil {
		return "", err
	}
	switch len(models) {
	case 0:
		return "", fmt.Errorf("no *.gguf models found in %s", p)
	case 1:
		return models[0].Path, nil
	default:
		names := make([]string, len(models))
		for i, m := range models {
			names[i] = m.Name
		}
		return "", fmt.Errorf("multiple models in %s (%s); pass a file path", p, strings.Join(names, ", "))
	}
}
