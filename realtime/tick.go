package realtime

import (
	"errors"
	"fmt"
)

// Step runs one tick synchronously: queued commands are applied in priority
// then submission order, then the current state is updated with dt. Command
// errors do not stop the tick; they are joined and returned.
//
// Step must not be called on a Runtime whose tick loop is running.
func (rt *Runtime) Step(dt float64) error {
	// Phase 1: Collect commands atomically
	cmds := rt.collectCommands()

	// Phase 2: Sort for deterministic order
	sortCommands(cmds)

	// Phase 3: Apply field writes
	var errs []error
	for _, c := range cmds {
		if err := c.Command.Apply(rt.machine); err != nil {
			errs = append(errs, fmt.Errorf("command %d: %w", c.SequenceNum, err))
		}
	}

	// Phase 4: Frame update and hooks
	rt.machine.Update(dt)
	for _, hook := range rt.hooks {
		hook(dt)
	}

	rt.current.Store(rt.machine.CurrentName())
	rt.batchMu.Lock()
	rt.tickNum++
	rt.batchMu.Unlock()

	return errors.Join(errs...)
}

// collectCommands atomically retrieves and clears the command batch
func (rt *Runtime) collectCommands() []CommandWithMeta {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	cmds := rt.batch
	rt.batch = make([]CommandWithMeta, 0, cap(rt.batch))

	return cmds
}
