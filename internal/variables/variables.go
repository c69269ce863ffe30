// Package variables expands {{name}} placeholders in Markdown. Documents can
// define their own values with <!-- @var name: value --> lines; anything not
// defined there falls back to the global set.
package variables

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	varPrefix     = "<!-- @var "
	includePrefix = "<!-- @include:"
	commentSuffix = " -->"
)

var placeholder = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Variable is a name/value pair.
type Variable struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Set is the YAML document shape for import and export.
type Set struct {
	Variables []Variable `yaml:"variables"`
}

// Processor holds the global variables. It is safe for concurrent use.
type Processor struct {
	mu      sync.RWMutex
	globals map[string]string
}

func NewProcessor() *Processor {
	return &Processor{globals: make(map[string]string)}
}

func (p *Processor) Set(name, value string) {
	p.mu.Lock()
	p.globals[name] = value
	p.mu.Unlock()
}

func (p *Processor) Get(name string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.globals[name]
	return v, ok
}

// Clear removes every global variable.
func (p *Processor) Clear() {
	p.mu.Lock()
	p.globals = make(map[string]string)
	p.mu.Unlock()
}

// All returns a copy of the global variables.
func (p *Processor) All() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.globals))
	for k, v := range p.globals {
		out[k] = v
	}
	return out
}

// Parse extracts variable definitions from content and returns the content
// with definition and include lines removed.
func Parse(content string) ([]Variable, string) {
	var vars []Variable
	var kept []string

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, varPrefix) && strings.HasSuffix(trimmed, commentSuffix):
			body := strings.TrimSuffix(strings.TrimPrefix(trimmed, varPrefix), commentSuffix)
			if name, value, ok := strings.Cut(body, ":"); ok {
				vars = append(vars, Variable{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
			}
		case strings.HasPrefix(trimmed, includePrefix) && strings.HasSuffix(trimmed, commentSuffix):
			// includes are not resolved yet
		default:
			kept = append(kept, line)
		}
	}
	return vars, strings.Join(kept, "\n")
}

// Process expands placeholders. File variables win over globals; unknown
// names are left untouched.
func (p *Processor) Process(content string) string {
	fileVars, body := Parse(content)
	local := make(map[string]string, len(fileVars))
	for _, v := range fileVars {
		local[v.Name] = v.Value
	}

	return placeholder.ReplaceAllStringFunc(body, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		if v, ok := local[name]; ok {
			return v
		}
		if v, ok := p.Get(name); ok {
			return v
		}
		return match
	})
}

// LoadYAML merges the variables in a YAML document into the globals.
func (p *Processor) LoadYAML(data string) error {
	var set Set
	if err := yaml.Unmarshal([]byte(data), &set); err != nil {
		return fmt.Errorf("parse variables: %w", err)
	}
	p.mu.Lock()
	for _, v := range set.Variables {
		p.globals[v.Name] = v.Value
	}
	p.mu.Unlock()
	return nil
}

// ExportYAML renders the globals, sorted by name.
func (p *Processor) ExportYAML() (string, error) {
	all := p.All()
	set := Set{Variables: make([]Variable, 0, len(all))}
	for name, value := range all {
		set.Variables = append(set.Variables, Variable{Name: name, Value: value})
	}
	sort.Slice(set.Variables, func(i, j int) bool { return set.Variables[i].Name < set.Variables[j].Name })

	data, err := yaml.Marshal(&set)
	if err != nil {
		return "", fmt.Errorf("export variables: %w", err)
	}
	return string(data), nil
}
