package realtime

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/comalice/chromafsm"
)

var (
	ErrQueueFull  = errors.New("command queue full")
	ErrNotRunning = errors.New("runtime not running")
)

// Runtime owns a machine and drives it from a single tick goroutine.
// Submit is the only method that may be called from other goroutines while
// the runtime is running.
type Runtime struct {
	machine *chromafsm.Machine

	tickRate time.Duration
	ticker   *time.Ticker
	tickNum  uint64
	hooks    []func(dt float64)
	logger   *log.Logger
	current  atomic.Value // string

	// Command batching
	batch       []CommandWithMeta
	batchMu     sync.Mutex
	sequenceNum uint64

	// Control
	tickCtx    context.Context
	tickCancel context.CancelFunc
	stopped    chan struct{}
}

// Config configures the real-time runtime
type Config struct {
	TickRate           time.Duration // Fixed tick rate (e.g., 16.67ms for 60 FPS)
	MaxCommandsPerTick int           // Command queue capacity (default: 1000)
	Logger             *log.Logger   // Receives recovered panics and command errors
}

// NewRuntime creates a tick-based runtime around an unstarted or started machine.
func NewRuntime(machine *chromafsm.Machine, cfg Config) *Runtime {
	if cfg.MaxCommandsPerTick == 0 {
		cfg.MaxCommandsPerTick = 1000
	}
	if cfg.TickRate == 0 {
		cfg.TickRate = 16667 * time.Microsecond // Default 60 FPS
	}
	rt := &Runtime{
		machine:  machine,
		tickRate: cfg.TickRate,
		logger:   cfg.Logger,
		batch:    make([]CommandWithMeta, 0, cfg.MaxCommandsPerTick),
	}
	rt.current.Store(machine.CurrentName())
	return rt
}

// OnTick registers a hook run after the machine update of every tick, with
// the tick's delta in seconds. Register hooks before Start.
func (rt *Runtime) OnTick(hook func(dt float64)) {
	rt.hooks = append(rt.hooks, hook)
}

// Start starts the machine if needed and begins tick-based execution.
func (rt *Runtime) Start(ctx context.Context) error {
	if rt.stopped != nil {
		return chromafsm.ErrAlreadyStarted
	}
	if !rt.machine.Started() {
		if err := rt.machine.Start(); err != nil {
			return err
		}
	}
	rt.current.Store(rt.machine.CurrentName())

	rt.tickCtx, rt.tickCancel = context.WithCancel(ctx)
	rt.ticker = time.NewTicker(rt.tickRate)
	rt.stopped = make(chan struct{})

	go rt.tickLoop()

	return nil
}

// Stop stops the tick loop and waits for it to exit.
func (rt *Runtime) Stop() error {
	if rt.stopped == nil {
		return ErrNotRunning
	}
	rt.tickCancel()
	rt.ticker.Stop()

	// Wait for tick loop to exit
	<-rt.stopped
	return nil
}

// tickLoop is the main tick execution loop
func (rt *Runtime) tickLoop() {
	defer close(rt.stopped)

	dt := rt.tickRate.Seconds()
	for {
		select {
		case <-rt.tickCtx.Done():
			return
		case <-rt.ticker.C:
			rt.safeStep(dt)
		}
	}
}

// safeStep runs one tick, logging errors and recovering panics so a faulty
// state cannot kill the loop.
func (rt *Runtime) safeStep(dt float64) {
	defer func() {
		if r := recover(); r != nil {
			rt.logf("tick %d: recovered panic: %v", rt.TickNumber(), r)
		}
	}()
	if err := rt.Step(dt); err != nil {
		rt.logf("tick %d: %v", rt.TickNumber(), err)
	}
}

func (rt *Runtime) logf(format string, args ...any) {
	if rt.logger != nil {
		rt.logger.Printf(format, args...)
	}
}

// Submit queues a command for the next tick (thread-safe)
func (rt *Runtime) Submit(cmd Command) error {
	return rt.SubmitWithPriority(cmd, 0)
}

// SubmitWithPriority queues a command; higher priorities run first within a tick.
func (rt *Runtime) SubmitWithPriority(cmd Command, priority int) error {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	if len(rt.batch) >= cap(rt.batch) {
		return ErrQueueFull
	}

	rt.batch = append(rt.batch, CommandWithMeta{
		Command:     cmd,
		SequenceNum: rt.sequenceNum,
		Priority:    priority,
	})
	rt.sequenceNum++

	return nil
}

// TickNumber returns the number of completed ticks
func (rt *Runtime) TickNumber() uint64 {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return rt.tickNum
}

// CurrentState returns the current state name as of the last completed tick.
func (rt *Runtime) CurrentState() string {
	return rt.current.Load().(string)
}
