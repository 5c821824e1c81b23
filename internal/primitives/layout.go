package primitives

import (
	"errors"
	"fmt"

	"github.com/comalice/chromafsm/quadrant"
)

// ProbeLayout is the world-build snapshot of colour probe placements.
type ProbeLayout struct {
	QuadrantSize float64           `json:"quadrantSize,omitempty" yaml:"quadrantSize,omitempty"`
	Probes       []ProbeDefinition `json:"probes" yaml:"probes"`
}

// ProbeDefinition places one probe.
type ProbeDefinition struct {
	Position [3]float64 `json:"position" yaml:"position,flow"`
	Color    string     `json:"color" yaml:"color"`
}

// Validate checks the size and every colour name.
func (l *ProbeLayout) Validate() error {
	if l.QuadrantSize < 0 {
		return errors.New("quadrant size must not be negative")
	}
	for i, p := range l.Probes {
		if _, err := quadrant.ParseColor(p.Color); err != nil {
			return fmt.Errorf("probe %d: %w", i, err)
		}
	}
	return nil
}

// Sources converts the layout into build input for quadrant.Build.
func (l *ProbeLayout) Sources() ([]quadrant.Source, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	out := make([]quadrant.Source, len(l.Probes))
	for i, p := range l.Probes {
		c, _ := quadrant.ParseColor(p.Color)
		out[i] = quadrant.Source{
			Position: quadrant.Vec3{X: p.Position[0], Y: p.Position[1], Z: p.Position[2]},
			Color:    c,
		}
	}
	return out, nil
}

// Build builds the quadrant system described by the layout.
func (l *ProbeLayout) Build() (*quadrant.System, error) {
	sources, err := l.Sources()
	if err != nil {
		return nil, err
	}
	return quadrant.Build(sources, quadrant.Config{Size: l.QuadrantSize})
}
