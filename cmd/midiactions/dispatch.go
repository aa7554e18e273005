package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ============================================================================
// Dispatch Engine
// ============================================================================
// Consumes one classified event at a time, resolves the mapped action,
// consults/updates controller state, and decides whether a side effect fires
// and which one.
//
// Design rules:
//   - Dispatch performs no I/O. It returns at most one Effect; the daemon
//     loop executes effects (effects.go) and is the only place that touches
//     sinks.
//   - The mapping table is read-only here; only controller state is mutated.
//   - State updates happen during the decision, before any sink runs, and are
//     never rolled back on sink failure.
// ============================================================================

// Effect is a side-effect request produced by dispatch. Zero or one effect
// is produced per event.
type Effect interface {
	effectMarker()
	String() string
}

// TapKey requests a synthetic key-down/key-up pair on the same logical key.
type TapKey struct {
	Code string
}

func (TapKey) effectMarker() {}
func (e TapKey) String() string {
	return fmt.Sprintf("TapKey(code=%s)", e.Code)
}

// RunShell requests a detached shell command. Fire-and-forget: the daemon
// never waits for completion and never observes the exit status.
type RunShell struct {
	Cmd string
}

func (RunShell) effectMarker() {}
func (e RunShell) String() string {
	return fmt.Sprintf("RunShell(cmd=%q)", e.Cmd)
}

// Dispatch resolves the action mapped to ev.ID and decides what fires.
// An unmapped controller returns nil without creating a state entry; a user
// intentionally maps only a subset of controls.
func Dispatch(ev ControlEvent, table MappingTable, store *StateStore) Effect {
	action, ok := table[ev.ID]
	if !ok {
		return nil
	}

	switch a := action.(type) {
	case KeyAction:
		// Stateless; fires on every qualifying event, including repeated
		// Note-On with the same id. No debouncing.
		return TapKey{Code: a.Code}

	case CommandAction:
		return RunShell{Cmd: a.Cmd}

	case LinearAction:
		percent := scalePercent(ev.Value)
		fire := false
		store.Update(ev.ID, func(st *controllerState) {
			raw := ev.Value
			st.lastRaw = &raw
			if st.lastPercent == nil || *st.lastPercent != percent {
				p := percent
				st.lastPercent = &p
				fire = true
			}
		})
		if !fire {
			// A device sending near-duplicate CC values while a knob is held
			// steady must not re-trigger identical commands.
			return nil
		}
		cmd := strings.Replace(a.Template, linearPlaceholder, strconv.Itoa(percent), 1)
		return RunShell{Cmd: cmd}

	case RelativeAction:
		var prev uint8
		store.Update(ev.ID, func(st *controllerState) {
			if st.lastRaw != nil {
				prev = *st.lastRaw
			} else {
				// First event for a fresh controller: nothing to compare
				// against, so default prev to the current value (no fire).
				prev = ev.Value
			}
			raw := ev.Value
			st.lastRaw = &raw
		})
		switch {
		case ev.Value > prev:
			return RunShell{Cmd: a.IncCmd}
		case ev.Value < prev:
			return RunShell{Cmd: a.DecCmd}
		default:
			return nil
		}

	default:
		return nil
	}
}

// scalePercent maps a raw 0-127 value onto an integer percentage 0-100,
// rounding to nearest.
func scalePercent(value uint8) int {
	return int(math.Round(float64(value) / midiValueMax * 100))
}
