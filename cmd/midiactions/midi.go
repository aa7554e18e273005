package main

// ============================================================================
// Message Classifier
// ============================================================================
// Turns a raw MIDI frame into a structured ControlEvent, or drops it.
//
// Only two message kinds matter here: Note-On models discrete presses (pads,
// buttons) and Control-Change models continuous controls (knobs, faders).
// Everything else a real device emits (clock, aftertouch, pitch bend, short
// or truncated frames) is expected chatter and is dropped without logging.
// ============================================================================

// EventKind is the classified MIDI message kind.
type EventKind int

const (
	NoteOn EventKind = iota
	ControlChange
)

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "note_on"
	case ControlChange:
		return "control_change"
	default:
		return "unknown"
	}
}

// ControlEvent is one classified controller event. It is produced and
// consumed per message and never stored.
type ControlEvent struct {
	Kind  EventKind
	ID    uint8
	Value uint8
}

// ClassifyFrame classifies a raw frame of 3 or more bytes
// [status, data1, data2, ...]. The second return value reports whether the
// frame produced an event.
//
// Note-On with velocity 0 is the standard "note-off via zero velocity"
// convention and must never trigger an action, so it classifies as nothing.
// Control-Change is meaningful at any value, including 0 (a knob at its
// minimum).
func ClassifyFrame(frame []byte) (ControlEvent, bool) {
	if len(frame) < 3 {
		return ControlEvent{}, false
	}

	status := frame[0] & statusMask
	id, value := frame[1], frame[2]

	// Data bytes are 7-bit. A set high bit means a malformed or misaligned
	// frame, not a controller event.
	if id > maxControllerID || value > midiValueMax {
		return ControlEvent{}, false
	}

	switch status {
	case statusNoteOn:
		if value == 0 {
			return ControlEvent{}, false
		}
		return ControlEvent{Kind: NoteOn, ID: id, Value: value}, true

	case statusControlChange:
		return ControlEvent{Kind: ControlChange, ID: id, Value: value}, true

	default:
		return ControlEvent{}, false
	}
}
