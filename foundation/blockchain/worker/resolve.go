package worker

import (
	"context"
	"errors"
)

// resolveOperations handles resolving the chain on every tick of the
// ticker or when signaled.
func (w *Worker) resolveOperations() {
	w.evHandler("worker: resolveOperations: G started")
	defer w.evHandler("worker: resolveOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runResolveOperation()
			}
		case <-w.startResolve:
			if !w.isShutdown() {
				w.runResolveOperation()
			}
		case <-w.shut:
			w.evHandler("worker: resolveOperations: received shut signal")
			return
		}
	}
}

// runResolveOperation asks the peers for their chains and adopts the
// longest valid one.
func (w *Worker) runResolveOperation() {
	w.evHandler("worker: runResolveOperation: started")
	defer w.evHandler("worker: runResolveOperation: completed")

	replaced, err := w.resolver.Resolve(w.ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.evHandler("worker: runResolveOperation: ERROR: %s", err)
		}
		return
	}

	if replaced {
		w.evHandler("worker: runResolveOperation: chain replaced")
		w.onReplaced()
	}
}
