package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/tomoflow/chain"
	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/validation"
)

// EnvPluginsPath lists extra process directories, separated like PATH.
const EnvPluginsPath = "TOMOFLOW_PLUGINS_PATH"

// Process is a parsed process file: the stages of one pipeline in order.
type Process struct {
	Name   string
	Stages []chain.Descriptor
}

type processFile struct {
	Name   string      `yaml:"name"`
	Stages []stageFile `yaml:"stages" validate:"min=2,dive"`
}

type stageFile struct {
	ID     string         `yaml:"id" validate:"required"`
	Name   string         `yaml:"name"`
	In     []string       `yaml:"in_datasets"`
	Out    []string       `yaml:"out_datasets"`
	Params map[string]any `yaml:"params"`
}

// ParseProcess decodes a process file. A process needs at least a source
// and a sink stage.
func ParseProcess(data []byte) (*Process, error) {
	var pf processFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, errors.InvalidInput("process", fmt.Sprintf("parsing yaml: %v", err))
	}
	if err := validation.ValidateStruct(&pf); err != nil {
		return nil, err
	}

	p := &Process{Name: pf.Name, Stages: make([]chain.Descriptor, len(pf.Stages))}
	for i, s := range pf.Stages {
		p.Stages[i] = chain.Descriptor{
			ID:     s.ID,
			Name:   s.Name,
			In:     chain.ParseNames(chain.RoleIn, s.In),
			Out:    chain.ParseNames(chain.RoleOut, s.Out),
			Params: s.Params,
		}
	}
	return p, nil
}

// LoadProcessFile reads and parses the process file at path. A process
// without a name takes the file's base name.
func LoadProcessFile(path string) (*Process, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("process file", path)
		}
		return nil, errors.InvalidInput("process", err.Error())
	}
	p, err := ParseProcess(data)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Loader finds process files by name in a list of directories.
type Loader struct {
	dirs []string
}

// NewLoader searches dirs in order.
func NewLoader(dirs ...string) *Loader {
	return &Loader{dirs: dirs}
}

// DefaultSearchPaths returns the working directory, every directory in
// TOMOFLOW_PLUGINS_PATH, then ~/tomoflow_plugins.
func DefaultSearchPaths() []string {
	dirs := []string{"."}
	if env := os.Getenv(EnvPluginsPath); env != "" {
		for _, d := range filepath.SplitList(env) {
			if d != "" {
				dirs = append(dirs, d)
			}
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "tomoflow_plugins"))
	}
	return dirs
}

// Dirs returns the search directories.
func (l *Loader) Dirs() []string { return l.dirs }

// Load resolves name to a process file. An existing path is used as is;
// otherwise <dir>/<name>, <dir>/<name>.yaml and <dir>/<name>.yml are tried
// in every search directory.
func (l *Loader) Load(name string) (*Process, error) {
	if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
		return LoadProcessFile(name)
	}
	for _, dir := range l.dirs {
		for _, ext := range []string{"", ".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
				return LoadProcessFile(path)
			}
		}
	}
	return nil, errors.NotFound("process file", name).
		WithDetail("searched", l.dirs)
}
