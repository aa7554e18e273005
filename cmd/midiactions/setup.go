package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// ============================================================================
// Setup / Discovery Mode
// ============================================================================
// Prints every incoming frame together with its classification and a
// ready-to-paste mapping stanza, for authoring configuration. Performs no
// dispatch and keeps no state.
// ============================================================================

// runSetupMode listens on one input port and prints what arrives until
// interrupted. If portName is empty, the last reported port is used (control
// surfaces tend to enumerate after built-in synth ports).
func runSetupMode(portName string) error {
	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("rtmididrv: %w", err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return fmt.Errorf("list midi inputs: %w", err)
	}
	if len(ins) == 0 {
		return errors.New("no MIDI devices found")
	}

	port := ins[len(ins)-1]
	if portName != "" {
		found := false
		for _, candidate := range ins {
			if candidate.String() == portName {
				port = candidate
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("midi input %q not found", portName)
		}
	}

	if err := port.Open(); err != nil {
		return fmt.Errorf("open %q: %w", port.String(), err)
	}

	fmt.Println()
	fmt.Println("DISCOVERY MODE")
	fmt.Printf("Listening to %q...\n", port.String())
	fmt.Println("(press Ctrl+C to stop)")
	fmt.Println()

	stop, err := midi.ListenTo(port, func(msg midi.Message, _ int32) {
		if len(msg) < 3 {
			return
		}
		status := msg[0] & statusMask
		id, value := msg[1], msg[2]

		fmt.Printf("RAW: [%d, %d, %d] -> type 0x%X\n", msg[0], id, value, status)

		switch {
		case status == statusControlChange:
			fmt.Printf("# knob/fader detected (id %d)\n", id)
			fmt.Printf("  \"%d\": { type: linear, template: \"pactl set-sink-volume @DEFAULT_SINK@ {}%%\" }\n\n", id)
		case status == statusNoteOn && value > 0:
			fmt.Printf("# button/pad detected (id %d)\n", id)
			fmt.Printf("  \"%d\": { type: key, code: KEY_F13 }\n\n", id)
		}
	}, midi.HandleError(func(listenErr error) {
		fmt.Fprintln(os.Stderr, "listener error:", listenErr)
	}))
	if err != nil {
		return fmt.Errorf("listen %q: %w", port.String(), err)
	}
	defer stop()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	return nil
}
