// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/comalice/chromafsm"
	"github.com/comalice/chromafsm/internal/primitives"
	"github.com/comalice/chromafsm/internal/production"
	"github.com/comalice/chromafsm/quadrant"
)

// GenRingDefinition creates n states s0..s(n-1) where each "tick" trigger
// advances to the next state, wrapping around.
func GenRingDefinition(n int) primitives.MachineDefinition {
	if n < 1 {
		n = 1
	}
	def := primitives.MachineDefinition{
		ID:     fmt.Sprintf("ring_%d", n),
		Entry:  "s0",
		Fields: []primitives.FieldDefinition{{Name: "tick", Type: "trigger"}},
		States: make([]primitives.StateDefinition, n),
	}
	for i := range def.States {
		def.States[i].Name = fmt.Sprintf("s%d", i)
		def.States[i].AddTransition(primitives.TransitionDefinition{
			To:   fmt.Sprintf("s%d", (i+1)%n),
			When: []primitives.ConditionDefinition{{Field: "tick", Op: "none"}},
		})
	}
	return def
}

// GenWideDefinition creates one "main" state with n outgoing transitions,
// transition i guarded by sel == i. Every target returns to main on sel < 0,
// so selecting n-1 measures a full scan of main's list.
func GenWideDefinition(n int) primitives.MachineDefinition {
	if n < 1 {
		n = 1
	}
	def := primitives.MachineDefinition{
		ID:     fmt.Sprintf("wide_%d", n),
		Entry:  "main",
		Fields: []primitives.FieldDefinition{{Name: "sel", Type: "int", Initial: -1}},
		States: make([]primitives.StateDefinition, 1, n+1),
	}
	def.States[0].Name = "main"
	for i := 0; i < n; i++ {
		target := fmt.Sprintf("target%d", i)
		def.States[0].AddTransition(primitives.TransitionDefinition{
			To:   target,
			When: []primitives.ConditionDefinition{{Field: "sel", Op: "==", Value: float64(i)}},
		})
		ts := primitives.StateDefinition{Name: target}
		ts.AddTransition(primitives.TransitionDefinition{
			To:   "main",
			When: []primitives.ConditionDefinition{{Field: "sel", Op: "<", Value: 0}},
		})
		def.States = append(def.States, ts)
	}
	return def
}

// MustBuild builds and starts a machine from def.
func MustBuild(def primitives.MachineDefinition, opts ...chromafsm.Option) *chromafsm.Machine {
	m, err := def.Build(nil, opts...)
	if err != nil {
		panic(err)
	}
	if err := m.Start(); err != nil {
		panic(err)
	}
	return m
}

// GenProbeGrid places n*n*n probes on a regular grid with the given spacing,
// cycling through the colours.
func GenProbeGrid(n int, spacing float64) []quadrant.Source {
	sources := make([]quadrant.Source, 0, n*n*n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				sources = append(sources, quadrant.Source{
					Position: quadrant.Vec3{X: float64(x) * spacing, Y: float64(y) * spacing, Z: float64(z) * spacing},
					Color:    quadrant.Color(len(sources) % quadrant.ColorCount),
				})
			}
		}
	}
	return sources
}

// GenSnapshotYAML generates YAML bytes for a snapshot of a ring machine with
// numStates states after one transition.
func GenSnapshotYAML(numStates int) []byte {
	m := MustBuild(GenRingDefinition(numStates))
	if err := m.SetTrigger("tick"); err != nil {
		panic(err)
	}
	snap, err := production.Capture(m)
	if err != nil {
		panic(err)
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		panic(err)
	}
	return data
}
