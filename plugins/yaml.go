package plugins

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefinitionFile pairs a parsed handler definition with where it came from.
type DefinitionFile struct {
	Definition Definition
	Path       string
}

// ParseDefinitionYAML decodes and validates a single handler definition.
// Unknown keys are rejected so a typo such as "reploy" fails at startup.
func ParseDefinitionYAML(data []byte) (Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Definition{}, fmt.Errorf("plugin: definition payload is empty")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var def Definition
	if err := dec.Decode(&def); err != nil {
		return Definition{}, fmt.Errorf("plugin: decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def.Normalized(), nil
}

// LoadDefinitionFile reads one YAML handler definition from disk.
func LoadDefinitionFile(path string) (DefinitionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	def, err := ParseDefinitionYAML(data)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("plugin: %s: %w", path, err)
	}
	return DefinitionFile{Definition: def, Path: filepath.Clean(path)}, nil
}

// LoadDefinitionDir parses every *.yaml / *.yml file in dir. A missing
// directory means no handlers.
func LoadDefinitionDir(dir string) ([]DefinitionFile, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	defs, err := loadDefinitionFS(os.DirFS(dir), dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return defs, err
}

func loadDefinitionFS(fsys fs.FS, root string) ([]DefinitionFile, error) {
	if _, err := fs.Stat(fsys, "."); err != nil {
		return nil, err
	}
	names, err := fs.Glob(fsys, "*")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	var defs []DefinitionFile
	for _, name := range names {
		if !isYAMLFile(name) {
			continue
		}
		info, err := fs.Stat(fsys, name)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("plugin: read %s: %w", name, err)
		}
		where := filepath.Join(root, filepath.FromSlash(name))
		def, err := ParseDefinitionYAML(data)
		if err != nil {
			return nil, fmt.Errorf("plugin: %s: %w", where, err)
		}
		defs = append(defs, DefinitionFile{Definition: def, Path: where})
	}
	return defs, nil
}

func isYAMLFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
