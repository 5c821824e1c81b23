// Package realtime provides a tick-based deterministic runtime for chromafsm machines.
//
// A chromafsm.Machine is single-threaded. The runtime confines it to one
// goroutine and turns concurrent input into ordered field writes:
//   - Commands are batched and applied at fixed tick boundaries
//   - Deterministic ordering via priority, then sequence number
//   - Machine.Update(dt) runs once per tick after the commands
//   - Registered tick hooks run after the update (e.g. probe recovery)
//
// # Example Usage
//
//	rt := realtime.NewRuntime(machine, realtime.Config{
//		TickRate: 16667 * time.Microsecond, // 60 FPS
//	})
//	rt.Start(ctx)
//	rt.Submit(realtime.Command{Kind: realtime.SetFloat, Field: "speed", Value: 2})
//
// # Command Ordering Guarantees
//
//  1. Higher priority commands are applied first
//  2. Commands with equal priority are applied in submission order
//  3. Stable sorting preserves relative order
//
// Given the same sequence of Submit calls per tick, the machine always
// visits the same states, regardless of timing or concurrency.
//
// # Replay
//
// Step runs a single tick synchronously without the ticker. Tests and replay
// tools drive the runtime with Step and never call Start.
package realtime
