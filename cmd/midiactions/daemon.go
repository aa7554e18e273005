package main

import (
	"context"
	"log/slog"
)

// ============================================================================
// Dispatch Loop
// ============================================================================
// The daemon loop consumes raw frames from the MIDI listener and synthetic
// events injected over IPC, classifies, dispatches against the mapping table
// and controller state, and executes the resulting effect.
//
// All frames for the device are delivered on a single logical stream and
// processed one at a time, in arrival order. There is no backpressure
// handling: control surfaces emit tens of messages per second at most,
// far below dispatch cost.
// ============================================================================

// runDaemon runs until ctx is canceled or an input channel closes.
func runDaemon(
	ctx context.Context,
	frames <-chan []byte,
	injected <-chan ControlEvent,
	table MappingTable,
	store *StateStore,
	sinks Sinks,
	logger *slog.Logger,
) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			return

		case frame, ok := <-frames:
			if !ok {
				logger.Info("daemon stopping (frame channel closed)")
				return
			}
			ev, ok := ClassifyFrame(frame)
			if !ok {
				// Expected device chatter; not even worth a debug line
				// per frame on clocked devices.
				continue
			}
			handleEvent(ev, table, store, sinks, logger)

		case ev, ok := <-injected:
			if !ok {
				logger.Info("daemon stopping (injected channel closed)")
				return
			}
			handleEvent(ev, table, store, sinks, logger)
		}
	}
}

// handleEvent runs one classified event through dispatch and effects.
func handleEvent(ev ControlEvent, table MappingTable, store *StateStore, sinks Sinks, logger *slog.Logger) {
	effect := Dispatch(ev, table, store)
	if effect == nil {
		logger.Debug("no effect", "kind", ev.Kind.String(), "id", ev.ID, "value", ev.Value)
		return
	}
	logger.Debug("dispatch", "kind", ev.Kind.String(), "id", ev.ID, "value", ev.Value, "effect", effect.String())
	runEffect(effect, sinks, logger)
}
