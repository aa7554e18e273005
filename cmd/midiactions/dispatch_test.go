package main

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
)

// mockKeySink records key taps and optionally fails.
type mockKeySink struct {
	taps []string
	err  error
}

func (m *mockKeySink) EmitKeyTap(code string) error {
	m.taps = append(m.taps, code)
	return m.err
}

func (m *mockKeySink) Close() error { return nil }

// mockCommandSink records spawned commands and optionally fails.
type mockCommandSink struct {
	cmds []string
	err  error
}

func (m *mockCommandSink) SpawnDetached(cmd string) error {
	m.cmds = append(m.cmds, cmd)
	return m.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// cc builds a ControlChange event.
func cc(id, value uint8) ControlEvent {
	return ControlEvent{Kind: ControlChange, ID: id, Value: value}
}

// noteOn builds a NoteOn event.
func noteOn(id, velocity uint8) ControlEvent {
	return ControlEvent{Kind: NoteOn, ID: id, Value: velocity}
}

// fired runs a sequence of events through dispatch and returns the shell
// commands that would fire, in order.
func fired(t *testing.T, table MappingTable, store *StateStore, events ...ControlEvent) []string {
	t.Helper()
	var cmds []string
	for _, ev := range events {
		switch e := Dispatch(ev, table, store).(type) {
		case nil:
		case RunShell:
			cmds = append(cmds, e.Cmd)
		default:
			t.Fatalf("unexpected effect type %T for event %+v", e, ev)
		}
	}
	return cmds
}

func TestDispatch_UnmappedController(t *testing.T) {
	table := MappingTable{20: CommandAction{Cmd: "echo mapped"}}
	store := NewStateStore()

	if effect := Dispatch(cc(21, 64), table, store); effect != nil {
		t.Errorf("expected no effect for unmapped controller, got %v", effect)
	}
	if store.Len() != 0 {
		t.Errorf("expected no state entry for unmapped controller, got %d", store.Len())
	}
}

func TestDispatch_KeyFiresEveryTime(t *testing.T) {
	table := MappingTable{36: KeyAction{Code: "KEY_F13"}}
	store := NewStateStore()

	// Repeated Note-On with the same id fires every time; no debouncing.
	for i := 0; i < 3; i++ {
		effect := Dispatch(noteOn(36, 100), table, store)
		tap, ok := effect.(TapKey)
		if !ok {
			t.Fatalf("event %d: expected TapKey, got %T", i, effect)
		}
		if tap.Code != "KEY_F13" {
			t.Errorf("event %d: expected KEY_F13, got %s", i, tap.Code)
		}
	}

	// A CC on a key-mapped id qualifies too.
	if _, ok := Dispatch(cc(36, 1), table, store).(TapKey); !ok {
		t.Error("expected TapKey for control change on key-mapped id")
	}
}

func TestDispatch_CommandFiresEveryTime(t *testing.T) {
	table := MappingTable{37: CommandAction{Cmd: "playerctl play-pause"}}
	store := NewStateStore()

	got := fired(t, table, store, noteOn(37, 1), noteOn(37, 127))
	want := []string{"playerctl play-pause", "playerctl play-pause"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDispatch_LinearDebounce(t *testing.T) {
	table := MappingTable{20: LinearAction{Template: "set-vol {}%"}}
	store := NewStateStore()

	// 63 and 64 both round to 50%: the second event must be suppressed.
	got := fired(t, table, store, cc(20, 63), cc(20, 64))
	want := []string{"set-vol 50%"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// A different rounding fires again.
	got = fired(t, table, store, cc(20, 65))
	want = []string{"set-vol 51%"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDispatch_LinearRoundingScenario(t *testing.T) {
	// 64 -> 50%, 65 -> 51%, 64 -> 50%: three distinct commands, since the
	// rounded percentage differs each time.
	table := MappingTable{20: LinearAction{Template: "set-vol {}%"}}
	store := NewStateStore()

	got := fired(t, table, store, cc(20, 64), cc(20, 65), cc(20, 64))
	want := []string{"set-vol 50%", "set-vol 51%", "set-vol 50%"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDispatch_LinearExtremes(t *testing.T) {
	table := MappingTable{20: LinearAction{Template: "set-vol {}%"}}
	store := NewStateStore()

	got := fired(t, table, store, cc(20, 0), cc(20, 127), cc(20, 127))
	want := []string{"set-vol 0%", "set-vol 100%"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDispatch_RelativeScenario(t *testing.T) {
	// First event: nothing to compare against, no fire. Then increase,
	// plateau, decrease.
	table := MappingTable{10: RelativeAction{IncCmd: "vol-up", DecCmd: "vol-down"}}
	store := NewStateStore()

	got := fired(t, table, store, cc(10, 64), cc(10, 70), cc(10, 70), cc(10, 60))
	want := []string{"vol-up", "vol-down"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDispatch_RelativeStrictSequences(t *testing.T) {
	table := MappingTable{10: RelativeAction{IncCmd: "up", DecCmd: "down"}}

	// Strictly increasing: one inc_cmd per step after the first event.
	store := NewStateStore()
	got := fired(t, table, store, cc(10, 10), cc(10, 11), cc(10, 12), cc(10, 13))
	if want := []string{"up", "up", "up"}; !reflect.DeepEqual(got, want) {
		t.Errorf("increasing: expected %v, got %v", want, got)
	}

	// Strictly decreasing: one dec_cmd per step after the first event.
	store = NewStateStore()
	got = fired(t, table, store, cc(10, 100), cc(10, 90), cc(10, 80))
	if want := []string{"down", "down"}; !reflect.DeepEqual(got, want) {
		t.Errorf("decreasing: expected %v, got %v", want, got)
	}
}

func TestDispatch_StateIndependentAcrossIDs(t *testing.T) {
	table := MappingTable{
		10: RelativeAction{IncCmd: "a-up", DecCmd: "a-down"},
		11: RelativeAction{IncCmd: "b-up", DecCmd: "b-down"},
	}
	store := NewStateStore()

	// Interleaved controllers must not see each other's previous values.
	got := fired(t, table, store,
		cc(10, 64), cc(11, 10),
		cc(10, 70), cc(11, 5),
	)
	want := []string{"a-up", "b-down"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDispatch_StateCreatedLazily(t *testing.T) {
	table := MappingTable{
		20: LinearAction{Template: "v {}"},
		36: KeyAction{Code: "KEY_F13"},
	}
	store := NewStateStore()

	// Key actions are stateless and must not create entries.
	Dispatch(noteOn(36, 100), table, store)
	if store.Len() != 0 {
		t.Fatalf("expected no state after key dispatch, got %d entries", store.Len())
	}

	Dispatch(cc(20, 64), table, store)
	st, ok := store.Peek(20)
	if !ok {
		t.Fatal("expected state entry for linear controller")
	}
	if st.lastRaw == nil || *st.lastRaw != 64 {
		t.Errorf("expected lastRaw 64, got %v", st.lastRaw)
	}
	if st.lastPercent == nil || *st.lastPercent != 50 {
		t.Errorf("expected lastPercent 50, got %v", st.lastPercent)
	}
}

func TestRunEffect_RoutesToSinks(t *testing.T) {
	keys := &mockKeySink{}
	cmds := &mockCommandSink{}
	sinks := Sinks{Keys: keys, Commands: cmds}
	logger := testLogger()

	runEffect(TapKey{Code: "KEY_F13"}, sinks, logger)
	runEffect(RunShell{Cmd: "echo hi"}, sinks, logger)

	if !reflect.DeepEqual(keys.taps, []string{"KEY_F13"}) {
		t.Errorf("expected one key tap, got %v", keys.taps)
	}
	if !reflect.DeepEqual(cmds.cmds, []string{"echo hi"}) {
		t.Errorf("expected one command, got %v", cmds.cmds)
	}
}

func TestRunEffect_SinkFailureIsNonFatal(t *testing.T) {
	keys := &mockKeySink{err: errors.New("virtual device unavailable")}
	cmds := &mockCommandSink{err: errors.New("fork failed")}
	sinks := Sinks{Keys: keys, Commands: cmds}
	logger := testLogger()

	// Must not panic, and later effects still reach the sinks.
	runEffect(TapKey{Code: "KEY_F13"}, sinks, logger)
	runEffect(RunShell{Cmd: "echo hi"}, sinks, logger)
	runEffect(RunShell{Cmd: "echo again"}, sinks, logger)

	if len(keys.taps) != 1 || len(cmds.cmds) != 2 {
		t.Errorf("expected sinks to keep receiving effects, got taps=%v cmds=%v", keys.taps, cmds.cmds)
	}
}

func TestHandleEvent_StateSurvivesSinkFailure(t *testing.T) {
	table := MappingTable{20: LinearAction{Template: "set-vol {}%"}}
	store := NewStateStore()
	cmds := &mockCommandSink{err: errors.New("spawn failed")}
	sinks := Sinks{Keys: &mockKeySink{}, Commands: cmds}
	logger := testLogger()

	handleEvent(cc(20, 64), table, store, sinks, logger)

	// The spawn failed, but the debounce memory was already updated and is
	// not rolled back: the same percentage must not fire again.
	handleEvent(cc(20, 64), table, store, sinks, logger)

	if len(cmds.cmds) != 1 {
		t.Errorf("expected exactly one spawn attempt, got %v", cmds.cmds)
	}
	st, ok := store.Peek(20)
	if !ok || st.lastPercent == nil || *st.lastPercent != 50 {
		t.Errorf("expected lastPercent 50 recorded despite sink failure, got %+v (ok=%v)", st, ok)
	}
}
