//go:build linux

package main

import (
	"fmt"
	"log/slog"

	"github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"
)

const uinputPath = "/dev/uinput"

// UinputKeySink emits key taps through a uinput virtual keyboard.
//
// The virtual device has to declare every key it will ever emit at creation
// time, so the sink is constructed with the key codes collected from the
// mapping table and cannot tap anything else.
type UinputKeySink struct {
	dev  *evdev.InputDevice
	keys map[string]evdev.EvCode
}

// NewKeySink creates the virtual keyboard and registers every code in codes.
// Codes are evdev KEY_* names ("KEY_F13"); unknown names are reported and
// skipped, so one typo doesn't take the whole surface down. Taps for an
// unregistered code fail per event instead.
//
// An unusable /dev/uinput is a construction error: if key mappings exist, the
// daemon must not start without a working key sink.
func NewKeySink(codes []string, logger *slog.Logger) (KeySink, error) {
	if err := unix.Access(uinputPath, unix.W_OK); err != nil {
		return nil, fmt.Errorf("%s not writable (add user to 'input' group or run as root): %w", uinputPath, err)
	}

	keys := make(map[string]evdev.EvCode, len(codes))
	evCodes := make([]evdev.EvCode, 0, len(codes))
	for _, code := range codes {
		c, ok := evdev.KEYFromString[code]
		if !ok {
			logger.Warn("unknown key code in mapping", "code", code)
			continue
		}
		keys[code] = c
		evCodes = append(evCodes, c)
	}
	if len(evCodes) == 0 {
		return nil, fmt.Errorf("none of the configured key codes are recognized evdev KEY_* names")
	}

	dev, err := evdev.CreateDevice(
		"midiactions",
		evdev.InputID{BusType: 0x03, Vendor: 0x4711, Product: 0x0816, Version: 1},
		map[evdev.EvType][]evdev.EvCode{
			evdev.EV_KEY: evCodes,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create uinput device: %w", err)
	}

	logger.Debug("virtual keyboard ready", "keys", len(evCodes))
	return &UinputKeySink{dev: dev, keys: keys}, nil
}

// EmitKeyTap performs a down transition followed immediately by an up
// transition on the same logical key.
func (s *UinputKeySink) EmitKeyTap(code string) error {
	c, ok := s.keys[code]
	if !ok {
		return fmt.Errorf("key code %q not registered on virtual keyboard", code)
	}

	events := []evdev.InputEvent{
		{Type: evdev.EV_KEY, Code: c, Value: 1},
		{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT, Value: 0},
		{Type: evdev.EV_KEY, Code: c, Value: 0},
		{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT, Value: 0},
	}
	for i := range events {
		if err := s.dev.WriteOne(&events[i]); err != nil {
			return fmt.Errorf("write key event %q: %w", code, err)
		}
	}
	return nil
}

// Close destroys the virtual keyboard.
func (s *UinputKeySink) Close() error {
	return s.dev.Close()
}
