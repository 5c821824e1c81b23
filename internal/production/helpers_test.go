package production

import (
	"testing"

	"github.com/comalice/chromafsm"
	"github.com/comalice/chromafsm/internal/primitives"
)

const idleMovingYAML = `
id: npc
version: v1
entry: Idle
fields:
  - {name: speed, type: float}
  - {name: armed, type: bool}
states:
  - name: Idle
    transitions:
      - to: Moving
        when: ["speed > 0"]
  - name: Moving
    transitions:
      - to: Idle
        when: ["speed == 0"]
      - to: Ready
        when: [armed]
  - name: Ready
`

func testDefinition(t *testing.T) primitives.MachineDefinition {
	t.Helper()
	def, err := ParseDefinition([]byte(idleMovingYAML), ".yaml")
	if err != nil {
		t.Fatal(err)
	}
	return def
}

func testMachine(t *testing.T, opts ...chromafsm.Option) *chromafsm.Machine {
	t.Helper()
	def := testDefinition(t)
	m, err := def.Build(nil, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}
