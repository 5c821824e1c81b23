package production

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comalice/chromafsm"
	"github.com/comalice/chromafsm/internal/primitives"
)

// LoadDefinition reads a machine definition from a .yaml, .yml or .json file
// and validates it.
func LoadDefinition(path string) (primitives.MachineDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return primitives.MachineDefinition{}, fmt.Errorf("read %s: %w", path, err)
	}
	def, err := ParseDefinition(data, filepath.Ext(path))
	if err != nil {
		return primitives.MachineDefinition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// ParseDefinition decodes and validates a definition. ext selects the format
// (".json" for JSON, anything else YAML).
func ParseDefinition(data []byte, ext string) (primitives.MachineDefinition, error) {
	var def primitives.MachineDefinition
	if err := decode(data, ext, &def); err != nil {
		return def, err
	}
	if err := def.Validate(); err != nil {
		return def, fmt.Errorf("validate: %w", err)
	}
	return def, nil
}

// LoadLayout reads and validates a probe layout file.
func LoadLayout(path string) (primitives.ProbeLayout, error) {
	var layout primitives.ProbeLayout
	data, err := os.ReadFile(path)
	if err != nil {
		return layout, fmt.Errorf("read %s: %w", path, err)
	}
	if err := decode(data, filepath.Ext(path), &layout); err != nil {
		return layout, fmt.Errorf("%s: %w", path, err)
	}
	if err := layout.Validate(); err != nil {
		return layout, fmt.Errorf("%s: validate: %w", path, err)
	}
	return layout, nil
}

// BuildMachine loads a definition file and builds the machine, using impl
// for states that have behaviour.
func BuildMachine(path string, impl map[string]chromafsm.State, opts ...chromafsm.Option) (*chromafsm.Machine, primitives.MachineDefinition, error) {
	def, err := LoadDefinition(path)
	if err != nil {
		return nil, def, err
	}
	m, err := def.Build(impl, opts...)
	if err != nil {
		return nil, def, fmt.Errorf("build %s: %w", def.ID, err)
	}
	return m, def, nil
}

// SaveDefinition writes a definition as YAML.
func SaveDefinition(path string, def primitives.MachineDefinition) error {
	data, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func decode(data []byte, ext string, v any) error {
	if strings.EqualFold(ext, ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("json decode: %w", err)
		}
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}
	return nil
}
