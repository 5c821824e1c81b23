// Package primitives defines the declarative definitions of machines and
// probe layouts: the shapes read from YAML or JSON files and validated
// before anything is built from them.
//
// Core invariants:
// - Validate never mutates the definition
// - A valid MachineDefinition always builds (see MachineDefinition.Builder)
// - Names are case-sensitive
package primitives
