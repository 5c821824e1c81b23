// Package testutil holds helpers shared by the package tests: runtime
// adapters that drive a machine either directly or through the tick
// runtime, and recording fakes for actor capabilities and observers.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/comalice/chromafsm"
	"github.com/comalice/chromafsm/realtime"
)

// RuntimeAdapter provides a common interface for driving a machine directly
// and through the tick-based runtime. This allows running the same test
// suite on both.
type RuntimeAdapter interface {
	Start(ctx context.Context) error
	Stop() error
	Send(cmd realtime.Command) error
	IsInState(name string) bool
	CurrentState() string
	WaitForStability(timeout time.Duration) error
}

// DirectAdapter applies every command to the machine as it is sent.
type DirectAdapter struct {
	machine *chromafsm.Machine
}

// NewDirectAdapter creates an adapter that writes fields synchronously.
func NewDirectAdapter(machine *chromafsm.Machine) *DirectAdapter {
	return &DirectAdapter{machine: machine}
}

func (a *DirectAdapter) Start(ctx context.Context) error {
	return a.machine.Start()
}

func (a *DirectAdapter) Stop() error {
	return nil
}

func (a *DirectAdapter) Send(cmd realtime.Command) error {
	return cmd.Apply(a.machine)
}

func (a *DirectAdapter) IsInState(name string) bool {
	return a.machine.CurrentName() == name
}

func (a *DirectAdapter) CurrentState() string {
	return a.machine.CurrentName()
}

func (a *DirectAdapter) WaitForStability(timeout time.Duration) error {
	// Field writes evaluate synchronously
	return nil
}

// TickBasedAdapter wraps the tick-based runtime
type TickBasedAdapter struct {
	rt       *realtime.Runtime
	tickRate time.Duration
	sentAt   uint64
}

// NewTickBasedAdapter creates a new adapter for the tick-based runtime
func NewTickBasedAdapter(machine *chromafsm.Machine, tickRate time.Duration) *TickBasedAdapter {
	return &TickBasedAdapter{
		rt: realtime.NewRuntime(machine, realtime.Config{
			TickRate: tickRate,
		}),
		tickRate: tickRate,
	}
}

func (a *TickBasedAdapter) Start(ctx context.Context) error {
	return a.rt.Start(ctx)
}

func (a *TickBasedAdapter) Stop() error {
	return a.rt.Stop()
}

func (a *TickBasedAdapter) Send(cmd realtime.Command) error {
	a.sentAt = a.rt.TickNumber()
	return a.rt.Submit(cmd)
}

func (a *TickBasedAdapter) IsInState(name string) bool {
	return a.rt.CurrentState() == name
}

func (a *TickBasedAdapter) CurrentState() string {
	return a.rt.CurrentState()
}

// WaitForStability waits until two ticks have completed since the last
// Send, so the command was collected by a full tick.
func (a *TickBasedAdapter) WaitForStability(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for a.rt.TickNumber() < a.sentAt+2 {
		if time.Now().After(deadline) {
			return fmt.Errorf("no tick within %v (tick %d)", timeout, a.rt.TickNumber())
		}
		time.Sleep(a.tickRate / 2)
	}
	return nil
}
