package voice

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/easeaico/project-pneuma/internal/emotion"
)

// DefaultPersona is used when no persona is configured.
const DefaultPersona = "pneuma"

//go:embed personas/*.yaml
var builtinPersonas embed.FS

// ToneSet is one start/middle/end template set of a mode.
type ToneSet struct {
	Start  string `yaml:"start"`
	Middle string `yaml:"middle"`
	End    string `yaml:"end"`
}

// AwarenessLines holds the phrasing appended for each raised awareness level.
type AwarenessLines struct {
	Reflective []string `yaml:"reflective"`
	Numinous   []string `yaml:"numinous"`
}

// Persona is the flavor corpus the composer draws from.
type Persona struct {
	Name        string               `yaml:"name"`
	Label       string               `yaml:"label"`
	Fear        string               `yaml:"fear"`
	Fallback    string               `yaml:"fallback"`
	Modes       map[string][]ToneSet `yaml:"modes"`
	Seeds       []string             `yaml:"seeds"`
	Direct      []string             `yaml:"direct"`
	Meta        []string             `yaml:"meta"`
	Oscillation []string             `yaml:"oscillation"`
	Reflections []string             `yaml:"reflections"`
	Coherence   []string             `yaml:"coherence"`
	Emotions    []string             `yaml:"emotions"`
	Awareness   AwarenessLines       `yaml:"awareness"`
	Archetypes  map[string][]string  `yaml:"archetypes"`
	Pools       map[string][]string  `yaml:"pools"`

	seedTemplates   []*template.Template
	directTemplates []*template.Template
}

// BuiltinPersonas lists the names of the embedded personas.
func BuiltinPersonas() []string {
	entries, err := builtinPersonas.ReadDir("personas")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// LoadPersona returns an embedded persona by name.
func LoadPersona(name string) (*Persona, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultPersona
	}
	data, err := builtinPersonas.ReadFile("personas/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown persona %q (available: %s)", name, strings.Join(BuiltinPersonas(), ", "))
	}
	return ParsePersona(data)
}

// LoadPersonaFile reads a persona from a YAML file on disk.
func LoadPersonaFile(path string) (*Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read persona file: %w", err)
	}
	return ParsePersona(data)
}

// ParsePersona decodes, validates and compiles a persona document.
func ParsePersona(data []byte) (*Persona, error) {
	var persona Persona
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&persona); err != nil {
		return nil, fmt.Errorf("failed to decode persona: %w", err)
	}
	if err := persona.Validate(); err != nil {
		return nil, err
	}
	if err := persona.compile(); err != nil {
		return nil, err
	}
	return &persona, nil
}

// Validate checks that every layer the composer draws from has content.
func (p *Persona) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("persona name is required")
	}
	if strings.TrimSpace(p.Label) == "" {
		p.Label = p.Name
	}
	if strings.TrimSpace(p.Fear) == "" {
		return fmt.Errorf("persona %s: fear line is required", p.Name)
	}
	for _, mode := range Modes() {
		sets := p.Modes[string(mode)]
		if len(sets) < 2 {
			return fmt.Errorf("persona %s: mode %s needs at least 2 template sets, got %d", p.Name, mode, len(sets))
		}
	}
	layers := []struct {
		name  string
		lines []string
	}{
		{"seeds", p.Seeds},
		{"direct", p.Direct},
		{"meta", p.Meta},
		{"oscillation", p.Oscillation},
		{"reflections", p.Reflections},
		{"coherence", p.Coherence},
		{"awareness.reflective", p.Awareness.Reflective},
		{"awareness.numinous", p.Awareness.Numinous},
	}
	for _, layer := range layers {
		if len(layer.lines) == 0 {
			return fmt.Errorf("persona %s: %s must not be empty", p.Name, layer.name)
		}
	}
	for _, vibe := range emotion.Vibes() {
		pool := p.Pools[string(vibe)]
		if len(pool) == 0 {
			return fmt.Errorf("persona %s: vibe %s has no archetype pool", p.Name, vibe)
		}
		for _, name := range pool {
			if len(p.Archetypes[name]) == 0 {
				return fmt.Errorf("persona %s: archetype %s in %s pool has no lines", p.Name, name, vibe)
			}
		}
	}
	return nil
}

func (p *Persona) compile() error {
	var err error
	if p.seedTemplates, err = parseTemplates(p.Name+".seed", p.Seeds); err != nil {
		return err
	}
	if p.directTemplates, err = parseTemplates(p.Name+".direct", p.Direct); err != nil {
		return err
	}
	return nil
}

// ModeNames returns the sorted mode keys present in the persona.
func (p *Persona) ModeNames() []string {
	names := make([]string, 0, len(p.Modes))
	for name := range p.Modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
