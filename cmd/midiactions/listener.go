package main

import (
	"fmt"
	"log/slog"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// MIDIListener owns the rtmidi driver and the connection to the configured
// input port. It forwards raw frames to a channel and performs no
// classification itself.
type MIDIListener struct {
	drv    *rtmididrv.Driver
	in     drivers.In
	stopFn func()
}

// NewMIDIListener initialises the rtmidi driver and opens the first input
// port whose name contains deviceName (case-insensitive). A missing device is
// an error; the daemon must not start without a confirmed connection.
func NewMIDIListener(deviceName string) (*MIDIListener, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}

	in, err := findInput(drv, deviceName)
	if err != nil {
		_ = drv.Close()
		return nil, err
	}
	if err := in.Open(); err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("open %q: %w", in.String(), err)
	}

	return &MIDIListener{drv: drv, in: in}, nil
}

// PortName reports the name of the connected input port.
func (l *MIDIListener) PortName() string {
	return l.in.String()
}

// Start begins delivering raw frames to frames. Driver errors after startup
// are sent to readErr; the first one wins, the rest are dropped.
func (l *MIDIListener) Start(frames chan<- []byte, readErr chan<- error, logger *slog.Logger) error {
	stop, err := midi.ListenTo(l.in, func(msg midi.Message, _ int32) {
		// Copy out of the callback: the driver may reuse its buffer.
		frame := make([]byte, len(msg))
		copy(frame, msg)
		select {
		case frames <- frame:
		default:
			logger.Warn("frame channel full, dropping frame", "len", len(frame))
		}
	}, midi.HandleError(func(listenErr error) {
		select {
		case readErr <- listenErr:
		default:
		}
	}))
	if err != nil {
		return fmt.Errorf("listen %q: %w", l.in.String(), err)
	}

	l.stopFn = stop
	return nil
}

// Close stops listening and shuts down the driver.
func (l *MIDIListener) Close() {
	if l.stopFn != nil {
		l.stopFn()
		l.stopFn = nil
	}
	if l.in != nil {
		_ = l.in.Close()
	}
	_ = l.drv.Close()
}

func findInput(drv *rtmididrv.Driver, deviceName string) (drivers.In, error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}
	needle := strings.ToLower(deviceName)
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), needle) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("midi device %q not found (%d inputs available)", deviceName, len(ins))
}
