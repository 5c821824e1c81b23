package extensibility

import (
	"context"
	"time"

	"github.com/comalice/chromafsm/realtime"
)

// Submitter accepts commands; *realtime.Runtime implements it.
type Submitter interface {
	Submit(cmd realtime.Command) error
}

// CommandSource produces commands for a runtime.
type CommandSource interface {
	Commands() <-chan realtime.Command
}

// ChannelSource is a CommandSource backed by a Go channel.
// The channel should be buffered if backpressure handling is needed.
type ChannelSource struct {
	ch chan realtime.Command
}

// NewChannelSource creates a new ChannelSource with the given channel.
func NewChannelSource(ch chan realtime.Command) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// Commands returns the receive-only channel for commands.
func (s *ChannelSource) Commands() <-chan realtime.Command {
	return s.ch
}

// TimerSource emits the same command every period, e.g. a heartbeat trigger.
type TimerSource struct {
	ch     chan realtime.Command
	cmd    realtime.Command
	ticker *time.Ticker
	stop   chan struct{}
}

// NewTimerSource creates a TimerSource that emits cmd every d duration.
func NewTimerSource(cmd realtime.Command, d time.Duration) *TimerSource {
	t := &TimerSource{
		ch:     make(chan realtime.Command, 10),
		cmd:    cmd,
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TimerSource) run() {
	for {
		select {
		case <-t.ticker.C:
			select {
			case t.ch <- t.cmd:
			default:
				// drop if full
			}
		case <-t.stop:
			t.ticker.Stop()
			close(t.ch)
			return
		}
	}
}

// Commands returns the command channel.
func (t *TimerSource) Commands() <-chan realtime.Command {
	return t.ch
}

// Stop stops the ticker and closes the channel.
func (t *TimerSource) Stop() {
	close(t.stop)
}

// Pump forwards commands from src to dst until the source closes or ctx is
// done. Submit errors (a full queue) drop the command and are counted.
func Pump(ctx context.Context, src CommandSource, dst Submitter) (dropped int) {
	ch := src.Commands()
	for {
		select {
		case <-ctx.Done():
			return dropped
		case cmd, ok := <-ch:
			if !ok {
				return dropped
			}
			if err := dst.Submit(cmd); err != nil {
				dropped++
			}
		}
	}
}
