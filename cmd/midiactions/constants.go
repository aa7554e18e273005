package main

// MIDI status bytes. The high nibble selects the message kind; the low nibble
// carries the channel, which this daemon ignores.
const (
	statusNoteOn        = 0x90
	statusControlChange = 0xB0
	statusMask          = 0xF0
)

const (
	// Controller ids and raw values are 7-bit per the MIDI spec.
	maxControllerID = 127
	midiValueMax    = 127
)

const (
	defaultConfigPath = "config.yaml"
	defaultIPCSocket  = "/tmp/midiactions.sock"

	// Frame/event channel depth. Control surfaces emit tens of messages per
	// second at most, so this only has to absorb short scheduling hiccups.
	eventBufferSize = 64

	// Substitution marker in Linear command templates.
	linearPlaceholder = "{}"
)
