package main

import "log/slog"

// Sinks bundles the effect sinks the daemon dispatches into.
type Sinks struct {
	Keys     KeySink
	Commands CommandSink
}

// runEffect executes a single dispatch-emitted Effect against the sinks.
//
// Design rules:
//   - This is the only place that performs effect I/O.
//   - Failures are reported and swallowed: controller state was already
//     updated during dispatch and is never rolled back, and the daemon keeps
//     processing subsequent events.
//   - Sinks must not block on external process completion; spawning is
//     non-waiting by contract.
func runEffect(effect Effect, sinks Sinks, logger *slog.Logger) {
	switch e := effect.(type) {
	case TapKey:
		if err := sinks.Keys.EmitKeyTap(e.Code); err != nil {
			logger.Error("key tap failed", "code", e.Code, "error", err)
		}

	case RunShell:
		if err := sinks.Commands.SpawnDetached(e.Cmd); err != nil {
			logger.Error("command spawn failed", "cmd", e.Cmd, "error", err)
		}

	default:
		logger.Warn("unknown effect type", "effect", effect.String())
	}
}
