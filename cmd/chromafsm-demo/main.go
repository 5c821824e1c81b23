// Command chromafsm-demo drives a wandering actor through a field of colour
// probes. The actor's machine comes from a definition file (or a built-in
// one), runs on the tick runtime and drains colour from nearby probes while
// it moves.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comalice/chromafsm"
	"github.com/comalice/chromafsm/internal/primitives"
	"github.com/comalice/chromafsm/internal/production"
	"github.com/comalice/chromafsm/quadrant"
	"github.com/comalice/chromafsm/realtime"
)

const builtinDefinition = `
id: wanderer
version: v1
entry: Idle
fields:
  - {name: speed, type: float}
  - {name: fatigue, type: float}
states:
  - name: Idle
    transitions:
      - to: Moving
        when: ["speed > 0"]
  - name: Moving
    transitions:
      - to: Idle
        when: ["speed == 0"]
      - to: Resting
        when: ["fatigue > 1"]
  - name: Resting
    transitions:
      - to: Idle
        when: ["fatigue < 0.1"]
`

const (
	absorbRadius = 10.0
	absorbRate   = 0.05
	recoverRate  = 0.1
)

func main() {
	var (
		machinePath  = flag.String("machine", "", "machine definition file (.yaml or .json); built-in wanderer if empty")
		probesPath   = flag.String("probes", "", "probe layout file; a generated grid if empty")
		snapshotPath = flag.String("snapshots", "", "SQLite database receiving the final snapshot")
		ticks        = flag.Int("ticks", 600, "ticks to run before exiting")
		tickRate     = flag.Duration("rate", 5*time.Millisecond, "tick period")
		dotPath      = flag.String("dot", "", "write the machine as Graphviz DOT to this file")
		serveAddr    = flag.String("serve", "", "stream transitions over WebSocket on this address, e.g. :8080")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "chromafsm: ", log.LstdFlags)
	if err := run(logger, config{
		machinePath:  *machinePath,
		probesPath:   *probesPath,
		snapshotPath: *snapshotPath,
		ticks:        *ticks,
		tickRate:     *tickRate,
		dotPath:      *dotPath,
		serveAddr:    *serveAddr,
	}); err != nil {
		logger.Fatal(err)
	}
}

type config struct {
	machinePath  string
	probesPath   string
	snapshotPath string
	ticks        int
	tickRate     time.Duration
	dotPath      string
	serveAddr    string
}

func run(logger *log.Logger, cfg config) error {
	def, err := loadDefinition(cfg.machinePath)
	if err != nil {
		return err
	}
	probes, err := loadProbes(cfg.probesPath)
	if err != nil {
		return err
	}
	logger.Printf("%d probes in %d cells of size %g", probes.Len(), probes.BucketCount(), probes.Size())

	records := make(chan chromafsm.TransitionRecord, 64)
	opts := []chromafsm.Option{
		chromafsm.WithLogger(logger),
		chromafsm.WithObserver(production.NewChannelPublisher(records)),
	}
	if cfg.serveAddr != "" {
		ws := production.NewWebSocketPublisher(logger)
		defer ws.Close()
		opts = append(opts, chromafsm.WithObserver(ws))
		srv := &http.Server{Addr: cfg.serveAddr, Handler: ws}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("serve: %v", err)
			}
		}()
		defer srv.Close()
	}

	m, err := def.Build(nil, opts...)
	if err != nil {
		return err
	}
	if err := m.Start(); err != nil {
		return err
	}

	rt := realtime.NewRuntime(m, realtime.Config{TickRate: cfg.tickRate, Logger: logger})
	w := &wanderer{machine: m, probes: probes}
	rt.OnTick(w.tick)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rt.Start(ctx); err != nil {
		return err
	}

	poll := time.NewTicker(cfg.tickRate)
	defer poll.Stop()
	for rt.TickNumber() < uint64(cfg.ticks) {
		select {
		case rec := <-records:
			fmt.Printf("tick %4d  %-8s -> %-8s fields=%v\n", rt.TickNumber(), rec.From, rec.To, rec.Fields)
		case <-poll.C:
		case <-ctx.Done():
			logger.Print("interrupted")
			cfg.ticks = 0
		}
	}
	if err := rt.Stop(); err != nil {
		return err
	}

	fmt.Printf("final state %s after %d ticks; drained %.2f, %d probes depleted\n",
		m.CurrentName(), rt.TickNumber(), w.drained.Sum(), probes.Depleted())

	if cfg.dotPath != "" {
		dot := (&production.DefaultVisualizer{}).ExportMachineDOT(m)
		if err := os.WriteFile(cfg.dotPath, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write dot: %w", err)
		}
	}
	if cfg.snapshotPath != "" {
		if err := saveSnapshot(m, primitives.ComputeVersion(&def), cfg.snapshotPath); err != nil {
			return err
		}
		logger.Printf("snapshot saved to %s", cfg.snapshotPath)
	}
	return nil
}

func loadDefinition(path string) (primitives.MachineDefinition, error) {
	if path == "" {
		return production.ParseDefinition([]byte(builtinDefinition), ".yaml")
	}
	return production.LoadDefinition(path)
}

func loadProbes(path string) (*quadrant.System, error) {
	if path != "" {
		layout, err := production.LoadLayout(path)
		if err != nil {
			return nil, err
		}
		return layout.Build()
	}
	var sources []quadrant.Source
	for x := 0; x < 40; x++ {
		for z := -2; z <= 2; z++ {
			sources = append(sources, quadrant.Source{
				Position: quadrant.Vec3{X: float64(x) * 5, Z: float64(z) * 4},
				Color:    quadrant.Color((x + z + 2) % quadrant.ColorCount),
			})
		}
	}
	return quadrant.Build(sources, quadrant.Config{})
}

// wanderer walks along +x while Moving, tiring as it goes, and rests once
// tired. It runs on the tick goroutine, so it writes the machine directly.
type wanderer struct {
	machine *chromafsm.Machine
	probes  *quadrant.System
	pos     quadrant.Vec3
	drained quadrant.Totals
}

func (w *wanderer) tick(dt float64) {
	fatigue, _ := w.machine.FloatField("fatigue")
	switch w.machine.CurrentName() {
	case "Idle":
		_ = w.machine.SetFloatField("speed", 4)
	case "Moving":
		speed, _ := w.machine.FloatField("speed")
		w.pos.X += speed * dt
		if w.pos.X > 200 {
			w.pos.X = 0
		}
		taken, err := w.probes.Absorb(w.pos, absorbRadius, absorbRate)
		if err == nil {
			for c := range taken {
				w.drained[c] += taken[c]
			}
		}
		_ = w.machine.SetFloatField("fatigue", fatigue+dt*0.5)
	case "Resting":
		_ = w.machine.SetFloatField("speed", 0)
		_ = w.machine.SetFloatField("fatigue", fatigue-dt)
	}
	w.probes.Recover(dt, recoverRate)
}

func saveSnapshot(m *chromafsm.Machine, version, path string) error {
	p, err := production.NewSQLitePersister(path)
	if err != nil {
		return err
	}
	defer p.Close()
	snap, err := production.Capture(m)
	if err != nil {
		return err
	}
	snap.DefinitionVersion = version
	return p.Save(context.Background(), snap)
}
