//go:build !linux

package main

import (
	"errors"
	"log/slog"
)

// NewKeySink on non-Linux platforms returns a stub whose taps always fail.
// Key injection is only implemented through uinput; command, linear and
// relative mappings work everywhere the rtmidi driver does, so construction
// succeeds and the limitation is reported per tap.
func NewKeySink(codes []string, logger *slog.Logger) (KeySink, error) {
	logger.Warn("key injection is not supported on this platform; key mappings will fail", "codes", len(codes))
	return unsupportedKeySink{}, nil
}

type unsupportedKeySink struct{}

func (unsupportedKeySink) EmitKeyTap(code string) error {
	return errors.New("key injection not supported on this platform")
}

func (unsupportedKeySink) Close() error { return nil }
