package main

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// Action Model
// ============================================================================
// An Action describes what the daemon does when a mapped controller fires.
// Actions are pure data; all behavior lives in the dispatch engine.
// ============================================================================

// Action is the marker interface for the four mapping variants.
type Action interface {
	actionMarker()
}

// KeyAction taps a synthetic key (down followed by up) on every qualifying
// event. Codes are evdev KEY_* names, e.g. "KEY_F13".
type KeyAction struct {
	Code string
}

func (KeyAction) actionMarker() {}

// CommandAction spawns an opaque shell command, detached, on every
// qualifying event.
type CommandAction struct {
	Cmd string
}

func (CommandAction) actionMarker() {}

// LinearAction maps the controller's absolute 0-127 value onto 0-100 and
// fires the template (placeholder replaced with the percentage) whenever the
// rounded percentage changes. Requires last-emitted-percentage memory.
type LinearAction struct {
	Template string
}

func (LinearAction) actionMarker() {}

// RelativeAction derives a direction from successive absolute readings and
// fires IncCmd on increase, DecCmd on decrease. Requires last-raw-value
// memory. This lets a position-reporting knob drive incremental controls
// without drift accumulation, since only local direction is used.
type RelativeAction struct {
	IncCmd string
	DecCmd string
}

func (RelativeAction) actionMarker() {}

// ActionSpec is the YAML representation of an Action. One stanza per
// controller id, discriminated by the "type" field:
//
//	"20": { type: linear, template: "pactl set-sink-volume @DEFAULT_SINK@ {}%" }
//	"36": { type: key, code: KEY_F13 }
type ActionSpec struct {
	Type     string `yaml:"type"`
	Code     string `yaml:"code,omitempty"`
	Cmd      string `yaml:"cmd,omitempty"`
	Template string `yaml:"template,omitempty"`
	IncCmd   string `yaml:"inc_cmd,omitempty"`
	DecCmd   string `yaml:"dec_cmd,omitempty"`
}

// ToAction validates the spec and converts it into its Action variant.
func (s ActionSpec) ToAction() (Action, error) {
	switch strings.ToLower(s.Type) {
	case "key":
		if s.Code == "" {
			return nil, errors.New("key action requires a code")
		}
		return KeyAction{Code: s.Code}, nil

	case "command":
		if s.Cmd == "" {
			return nil, errors.New("command action requires a cmd")
		}
		return CommandAction{Cmd: s.Cmd}, nil

	case "linear":
		if s.Template == "" {
			return nil, errors.New("linear action requires a template")
		}
		if strings.Count(s.Template, linearPlaceholder) != 1 {
			return nil, fmt.Errorf("linear template must contain exactly one %q placeholder", linearPlaceholder)
		}
		return LinearAction{Template: s.Template}, nil

	case "relative":
		if s.IncCmd == "" || s.DecCmd == "" {
			return nil, errors.New("relative action requires both inc_cmd and dec_cmd")
		}
		return RelativeAction{IncCmd: s.IncCmd, DecCmd: s.DecCmd}, nil

	case "":
		return nil, errors.New("action is missing a type")

	default:
		return nil, fmt.Errorf("unknown action type %q", s.Type)
	}
}
