package scenario

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/slotsig/internal/errors"
)

// FileExt is the extension of scenario files.
const FileExt = ".yaml"

//go:embed builtin/*.yaml
var builtinFS embed.FS

var (
	builtinsOnce sync.Once
	builtins     []*Scenario
	builtinsErr  error
)

// Parse decodes and validates a scenario document. Unknown fields are
// rejected so that misspelled verbs do not pass silently.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, errors.NewScenarioError(fmt.Sprintf("parsing scenario: %v", err), errors.ErrScenarioInvalid)
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadFile reads and parses a scenario file.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("scenario file", path)
		}
		return nil, errors.Wrapf(err, "reading scenario file %s", path)
	}

	sc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return sc, nil
}

// Builtins returns the embedded scenarios sorted by name. The slice and the
// scenarios are shared; callers must not modify them.
func Builtins() ([]*Scenario, error) {
	builtinsOnce.Do(func() {
		builtins, builtinsErr = loadBuiltins(builtinFS)
	})
	return builtins, builtinsErr
}

func loadBuiltins(fsys fs.FS) ([]*Scenario, error) {
	files, err := fs.Glob(fsys, "builtin/*"+FileExt)
	if err != nil {
		return nil, err
	}

	out := make([]*Scenario, 0, len(files))
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		sc, err := Parse(data)
		if err != nil {
			return nil, errors.Wrapf(err, "builtin %s", path.Base(file))
		}
		out = append(out, sc)
	}

	slices.SortFunc(out, func(a, b *Scenario) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// Builtin returns the embedded scenario with the given name.
func Builtin(name string) (*Scenario, error) {
	all, err := Builtins()
	if err != nil {
		return nil, err
	}
	for _, sc := range all {
		if sc.Name == name {
			return sc, nil
		}
	}
	return nil, errors.NewNotFoundError("scenario", name)
}

// BuiltinSource returns the YAML document of an embedded scenario.
func BuiltinSource(name string) ([]byte, error) {
	all, err := Builtins()
	if err != nil {
		return nil, err
	}
	for _, sc := range all {
		if sc.Name != name {
			continue
		}
		// File names follow scenario names.
		data, err := builtinFS.ReadFile("builtin/" + name + FileExt)
		if err != nil {
			return nil, errors.Wrapf(err, "builtin %s", name)
		}
		return data, nil
	}
	return nil, errors.NewNotFoundError("scenario", name)
}

// Resolve finds a scenario by reference. A reference that names an
// existing file is loaded from disk; otherwise it is looked up as
// <dir>/<ref>.yaml in each dir, then among the builtins.
func Resolve(ref string, dirs ...string) (*Scenario, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return LoadFile(ref)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, ref+FileExt)
		if _, err := os.Stat(candidate); err == nil {
			return LoadFile(candidate)
		}
	}

	return Builtin(ref)
}

// LoadDir loads every scenario file in dir, sorted by scenario name. A
// missing directory yields no scenarios.
func LoadDir(dir string) ([]*Scenario, error) {
	if dir == "" {
		return nil, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*"+FileExt))
	if err != nil {
		return nil, err
	}

	out := make([]*Scenario, 0, len(files))
	for _, file := range files {
		sc, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}

	slices.SortFunc(out, func(a, b *Scenario) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}
