package main

import (
	"errors"
	"fmt"
	"os/exec"
)

// ============================================================================
// Effect Sinks
// ============================================================================
// The dispatch engine depends only on these interfaces; the concrete
// mechanisms (uinput virtual keyboard, process spawning) live behind them.
// Sink failures are reported by the effects stage and are never fatal.
// ============================================================================

// KeySink injects a synthetic key-down/key-up pair for a symbolic key code.
type KeySink interface {
	EmitKeyTap(code string) error
	Close() error
}

// CommandSink spawns a shell command without waiting for it to finish.
type CommandSink interface {
	SpawnDetached(cmd string) error
}

// ShellCommandSink runs commands through `sh -c`, detached. Stdout/stderr are
// not captured and the exit status is not observed.
type ShellCommandSink struct{}

// SpawnDetached starts cmdline and returns as soon as the process exists.
func (ShellCommandSink) SpawnDetached(cmdline string) error {
	cmd := exec.Command("sh", "-c", cmdline)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %q: %w", cmdline, err)
	}
	// Reap in the background so finished children don't linger as zombies.
	// The exit status is discarded.
	go func() { _ = cmd.Wait() }()
	return nil
}

// disabledKeySink stands in when the mapping table names no keys, so the
// daemon never touches uinput it doesn't need. Taps should be unreachable;
// if one arrives anyway it fails like any other sink error.
type disabledKeySink struct{}

func (disabledKeySink) EmitKeyTap(code string) error {
	return errors.New("no key sink configured")
}

func (disabledKeySink) Close() error { return nil }
