// Package worker runs the background workflows for the node. Today that is
// the periodic resolution of the chain against the known peers.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// EventHandler defines a function that is called when events
// occur in the background workflows.
type EventHandler func(v string, args ...any)

// Resolver represents the behavior required to bring the local chain up to
// date with the network.
type Resolver interface {
	Resolve(ctx context.Context) (bool, error)
}

// =============================================================================

// Config represents the systems and settings the worker needs.
type Config struct {
	Resolver   Resolver
	Interval   time.Duration
	OnReplaced func()
	EvHandler  EventHandler
}

// Worker manages the background workflows for the node.
type Worker struct {
	resolver     Resolver
	onReplaced   func()
	evHandler    EventHandler
	wg           sync.WaitGroup
	ticker       *time.Ticker
	shut         chan struct{}
	ctx          context.Context
	cancel       context.CancelFunc
	startResolve chan bool
}

// Run creates a worker and starts up all the background processes. The
// chain is resolved once as soon as the worker starts.
func Run(cfg Config) (*Worker, error) {
	if cfg.Resolver == nil {
		return nil, errors.New("resolver is required")
	}

	if cfg.Interval <= 0 {
		return nil, errors.New("interval must be greater than zero")
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	onReplaced := cfg.OnReplaced
	if onReplaced == nil {
		onReplaced = func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := Worker{
		resolver:     cfg.Resolver,
		onReplaced:   onReplaced,
		evHandler:    ev,
		ticker:       time.NewTicker(cfg.Interval),
		shut:         make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
		startResolve: make(chan bool, 1),
	}

	// Update this node as soon as the operation is running.
	w.SignalResolve()

	// Load the set of operations we need to run.
	operations := []func(){
		w.resolveOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &w, nil
}

// Shutdown terminates the goroutines performing work. A resolution in
// flight is cancelled.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: cancel resolve")
	w.cancel()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalResolve starts a resolution outside of the regular interval. If
// there is already a signal pending in the channel, just return since a
// resolution will start.
func (w *Worker) SignalResolve() {
	select {
	case w.startResolve <- true:
	default:
	}
	w.evHandler("worker: SignalResolve: resolve signaled")
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
