// Package production provides production integrations: persistence, transition publishing,
// visualization, definition loading and hot reload.
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/comalice/chromafsm"
)

// Snapshot is the serializable runtime state of a machine.
type Snapshot struct {
	ID                string             `json:"id" yaml:"id"`
	MachineID         string             `json:"machineID" yaml:"machineID"`
	DefinitionVersion string             `json:"definitionVersion,omitempty" yaml:"definitionVersion,omitempty"`
	Current           string             `json:"current" yaml:"current"`
	Fields            map[string]float64 `json:"fields" yaml:"fields"`
	Timestamp         time.Time          `json:"timestamp" yaml:"timestamp"`
}

// Persister saves and loads the latest snapshot per machine.
type Persister interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Load(ctx context.Context, machineID string) (Snapshot, error)
}

// Capture snapshots a started machine under a fresh snapshot ID.
func Capture(m *chromafsm.Machine) (Snapshot, error) {
	if !m.Started() {
		return Snapshot{}, chromafsm.ErrNotStarted
	}
	if m.ID() == "" {
		return Snapshot{}, errors.New("machine ID is required for snapshots")
	}
	return Snapshot{
		ID:        uuid.New().String(),
		MachineID: m.ID(),
		Current:   m.CurrentName(),
		Fields:    m.FieldValues(),
		Timestamp: time.Now().UTC(),
	}, nil
}

// Apply restores the snapshot into a machine built from the same definition.
func (s Snapshot) Apply(m *chromafsm.Machine) error {
	if err := m.Restore(s.Current, s.Fields); err != nil {
		return fmt.Errorf("apply snapshot %s: %w", s.ID, err)
	}
	return nil
}

func validateSnapshot(s Snapshot) error {
	if s.MachineID == "" {
		return errors.New("snapshot machine ID is required")
	}
	if s.Current == "" {
		return errors.New("snapshot current state is required")
	}
	return nil
}

// JSONPersister is a file-based persister using JSON serialization, one file per machine.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) Save(ctx context.Context, snapshot Snapshot) error {
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	fn := filepath.Join(p.dir, snapshot.MachineID+".json")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}

	return nil
}

func (p *JSONPersister) Load(ctx context.Context, machineID string) (Snapshot, error) {
	fn := filepath.Join(p.dir, machineID+".json")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, fmt.Errorf("machine %q: %w", machineID, os.ErrNotExist)
		}
		return Snapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	snapshot.MachineID = machineID // Ensure ID
	if err := validateSnapshot(snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot validation after load: %w", err)
	}

	return snapshot, nil
}

// YAMLPersister is a file-based persister using YAML serialization.
type YAMLPersister struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

func (p *YAMLPersister) Save(ctx context.Context, snapshot Snapshot) error {
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}

	fn := filepath.Join(p.dir, snapshot.MachineID+".yaml")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}

	return nil
}

func (p *YAMLPersister) Load(ctx context.Context, machineID string) (Snapshot, error) {
	fn := filepath.Join(p.dir, machineID+".yaml")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, fmt.Errorf("machine %q: %w", machineID, os.ErrNotExist)
		}
		return Snapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snapshot Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	snapshot.MachineID = machineID // Ensure ID
	if err := validateSnapshot(snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot validation after load: %w", err)
	}

	return snapshot, nil
}
