package production

import (
	"sync"
	"sync/atomic"

	"github.com/comalice/chromafsm"
)

// ChannelPublisher forwards transition records to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	mu      sync.RWMutex
	ch      chan<- chromafsm.TransitionRecord
	closed  bool
	dropped atomic.Uint64
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- chromafsm.TransitionRecord) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

// ObserveTransition implements chromafsm.TransitionObserver.
func (p *ChannelPublisher) ObserveTransition(rec chromafsm.TransitionRecord) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.ch <- rec:
	default:
		p.dropped.Add(1) // Non-blocking drop
	}
}

// Dropped returns how many records were dropped because the channel was full.
func (p *ChannelPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Close closes the output channel. Later records are discarded.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}
