// Package plan describes a batch of statements to convert into one workbook,
// read either from a folder of PDFs or from a YAML manifest.
package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Statement is one PDF of a batch. Empty fields fall back to the plan's.
type Statement struct {
	Path   string   `yaml:"path"`
	Mode   string   `yaml:"mode,omitempty"`
	Budget *float64 `yaml:"budget,omitempty"`
}

// Plan lists the statements of a batch.
type Plan struct {
	Output     string      `yaml:"output,omitempty"`
	Mode       string      `yaml:"mode,omitempty"`
	Budget     *float64    `yaml:"budget,omitempty"`
	Statements []Statement `yaml:"statements"`
}

// Resolve reads a manifest when arg is a .yaml/.yml file and scans the
// folder otherwise.
func Resolve(arg string) (*Plan, error) {
	info, err := os.Stat(arg)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return FromDir(arg)
	}
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".yaml", ".yml":
		return Load(arg)
	}
	return nil, fmt.Errorf("%s is neither a folder nor a YAML manifest", arg)
}

// FromDir plans every PDF of dir, in file name order.
func FromDir(dir string) (*Plan, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	p := &Plan{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		p.Statements = append(p.Statements, Statement{Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(p.Statements, func(i, j int) bool { return p.Statements[i].Path < p.Statements[j].Path })
	if len(p.Statements) == 0 {
		return nil, fmt.Errorf("no PDF in %s", dir)
	}
	return p, nil
}

// Load reads a manifest. Relative paths are taken from the manifest folder.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	if len(p.Statements) == 0 {
		return nil, fmt.Errorf("manifest %s lists no statement", path)
	}

	base := filepath.Dir(path)
	for i, s := range p.Statements {
		if s.Path == "" {
			return nil, fmt.Errorf("manifest %s: statement %d has no path", path, i+1)
		}
		if !filepath.IsAbs(s.Path) {
			p.Statements[i].Path = filepath.Join(base, s.Path)
		}
	}
	if p.Output != "" && !filepath.IsAbs(p.Output) {
		p.Output = filepath.Join(base, p.Output)
	}
	return &p, nil
}

// ModeOf returns the statement's mode, or the plan's, or def.
func (p *Plan) ModeOf(s Statement, def string) string {
	switch {
	case s.Mode != "":
		return s.Mode
	case p.Mode != "":
		return p.Mode
	}
	return def
}

// BudgetOf returns the statement's budget, or the plan's, or def.
func (p *Plan) BudgetOf(s Statement, def *float64) *float64 {
	switch {
	case s.Budget != nil:
		return s.Budget
	case p.Budget != nil:
		return p.Budget
	}
	return def
}
