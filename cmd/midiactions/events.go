package main

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// Injected Events - JSON Encoding/Decoding Support
// ============================================================================
// Synthetic controller events can be injected over the IPC socket. They are
// wire-equivalent to what the classifier produces from a hardware frame, so
// injected events exercise exactly the same mapping and state logic.
// ============================================================================

// ControlInput is the payload of an injected controller event.
type ControlInput struct {
	ID    uint8 `json:"id"`
	Value uint8 `json:"value"`
}

// EventEnvelope wraps an injected event with a type discriminator for JSON.
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalControlEvent deserializes a JSON envelope into a ControlEvent.
//
// Injected note_on events follow the same zero-velocity convention as
// hardware frames: velocity 0 means note-off and is rejected here rather
// than silently dropped, since an IPC client deserves the feedback.
func UnmarshalControlEvent(data []byte) (ControlEvent, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ControlEvent{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	var in ControlInput
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return ControlEvent{}, fmt.Errorf("unmarshal %s data: %w", env.Type, err)
		}
	}

	// Both fields are 7-bit on the wire; JSON only enforces the uint8 range,
	// so 128-255 has to be rejected here or dispatch would compute
	// percentages above 100.
	if in.ID > maxControllerID {
		return ControlEvent{}, fmt.Errorf("id must be 0-127, got %d", in.ID)
	}
	if in.Value > midiValueMax {
		return ControlEvent{}, fmt.Errorf("value must be 0-127, got %d", in.Value)
	}

	switch env.Type {
	case "note_on":
		if in.Value == 0 {
			return ControlEvent{}, fmt.Errorf("note_on velocity must be 1-127")
		}
		return ControlEvent{Kind: NoteOn, ID: in.ID, Value: in.Value}, nil

	case "control_change":
		return ControlEvent{Kind: ControlChange, ID: in.ID, Value: in.Value}, nil

	default:
		return ControlEvent{}, fmt.Errorf("unknown event type: %q", env.Type)
	}
}

// MarshalControlEvent serializes a ControlEvent into a JSON envelope with a
// type discriminator. Counterpart of UnmarshalControlEvent; used by tests and
// kept in sync with the midictl client.
func MarshalControlEvent(ev ControlEvent) ([]byte, error) {
	data, err := json.Marshal(ControlInput{ID: ev.ID, Value: ev.Value})
	if err != nil {
		return nil, fmt.Errorf("marshal control input: %w", err)
	}

	var env EventEnvelope
	switch ev.Kind {
	case NoteOn:
		env.Type = "note_on"
	case ControlChange:
		env.Type = "control_change"
	default:
		return nil, fmt.Errorf("unsupported event kind: %v", ev.Kind)
	}
	env.Data = data

	return json.Marshal(env)
}
