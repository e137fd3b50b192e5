package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"
)

const goDefinitionFuncName = "UseHandlers"

// Go plugins only get the packages they need to build definitions.
var pluginSymbols = interp.Exports{}

func init() {
	for _, key := range []string{"fmt/fmt", "strings/strings", "strconv/strconv"} {
		if syms, ok := stdlib.Symbols[key]; ok {
			pluginSymbols[key] = syms
		}
	}
}

// LoadGoDefinitionDir interprets every .go file in dir and collects the
// handler definitions returned by its UseHandlers function:
//
//	func UseHandlers() ([]map[string]any, error)
func LoadGoDefinitionDir(dir string) ([]DefinitionFile, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return nil, fmt.Errorf("plugin: scan %s: %w", dir, err)
	}
	sort.Strings(paths)
	var defs []DefinitionFile
	for _, path := range paths {
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		fileDefs, err := loadGoDefinitionFile(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, fileDefs...)
	}
	return defs, nil
}

func loadGoDefinitionFile(path string) ([]DefinitionFile, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	if strings.TrimSpace(string(code)) == "" {
		return nil, fmt.Errorf("plugin: %s is empty", path)
	}
	raw, err := evalUseHandlers(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, err)
	}
	files := make([]DefinitionFile, 0, len(raw))
	for idx, entry := range raw {
		def, err := definitionFromMap(entry)
		if err != nil {
			return nil, fmt.Errorf("plugin: %s handler[%d]: %w", path, idx, err)
		}
		files = append(files, DefinitionFile{Definition: def, Path: fmt.Sprintf("%s#%d", path, idx+1)})
	}
	return files, nil
}

func evalUseHandlers(path string) ([]map[string]any, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(pluginSymbols); err != nil {
		return nil, fmt.Errorf("load symbols: %w", err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("interpret: %w", err)
	}
	fn, err := i.Eval(goDefinitionFuncName)
	if err != nil {
		return nil, fmt.Errorf("must define %s() ([]map[string]any, error): %w", goDefinitionFuncName, err)
	}
	return callUseHandlers(fn)
}

func callUseHandlers(fn reflect.Value) ([]map[string]any, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", goDefinitionFuncName)
	}
	if fn.Type().NumIn() != 0 {
		return nil, fmt.Errorf("%s must take no arguments", goDefinitionFuncName)
	}
	out := fn.Call(nil)
	if len(out) != 2 {
		return nil, fmt.Errorf("%s must return ([]map[string]any, error)", goDefinitionFuncName)
	}
	if errVal := out[1]; !errVal.IsNil() {
		if e, ok := errVal.Interface().(error); ok {
			return nil, e
		}
		return nil, fmt.Errorf("%s returned a non-error second value", goDefinitionFuncName)
	}
	list := out[0]
	if defs, ok := list.Interface().([]map[string]any); ok {
		return defs, nil
	}
	if list.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%s must return []map[string]any", goDefinitionFuncName)
	}
	defs := make([]map[string]any, list.Len())
	for idx := range defs {
		m, ok := list.Index(idx).Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s()[%d] is not map[string]any", goDefinitionFuncName, idx)
		}
		defs[idx] = m
	}
	return defs, nil
}

// definitionFromMap routes a plugin map through YAML so Go and YAML plugins
// share one decoder and one set of validation rules.
func definitionFromMap(entry map[string]any) (Definition, error) {
	payload, err := yaml.Marshal(entry)
	if err != nil {
		return Definition{}, err
	}
	return ParseDefinitionYAML(payload)
}
