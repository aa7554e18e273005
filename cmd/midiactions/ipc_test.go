package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startTestIPC(t *testing.T) (string, chan ControlEvent) {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "ipc.sock")
	listener, err := bindIPCSocket(socketPath)
	if err != nil {
		t.Fatalf("bindIPCSocket: %v", err)
	}

	events := make(chan ControlEvent, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		serveIPC(ctx, listener, socketPath, events, testLogger())
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return socketPath, events
}

func ipcRequest(t *testing.T, socketPath, line string) IPCResponse {
	t.Helper()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial %s: %v", socketPath, err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		t.Fatalf("send: %v", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(bufio.NewReader(conn)).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestIPC_InjectNoteOn(t *testing.T) {
	socketPath, events := startTestIPC(t)

	resp := ipcRequest(t, socketPath, `{"type":"note_on","data":{"id":36,"value":100}}`)
	if resp.Status != "ok" {
		t.Fatalf("expected ok, got %+v", resp)
	}

	select {
	case ev := <-events:
		want := ControlEvent{Kind: NoteOn, ID: 36, Value: 100}
		if ev != want {
			t.Errorf("got %+v, want %+v", ev, want)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestIPC_RejectsGarbage(t *testing.T) {
	socketPath, events := startTestIPC(t)

	resp := ipcRequest(t, socketPath, `not json at all`)
	if resp.Status != "error" || resp.Error == "" {
		t.Fatalf("expected error response, got %+v", resp)
	}

	select {
	case ev := <-events:
		t.Errorf("unexpected event %+v for rejected input", ev)
	default:
	}
}

func TestIPC_RejectsOutOfRangeValue(t *testing.T) {
	socketPath, events := startTestIPC(t)

	// A value of 128-255 fits in uint8 but not in the 7-bit wire range; it
	// must never reach dispatch, where it would scale past 100%.
	resp := ipcRequest(t, socketPath, `{"type":"control_change","data":{"id":20,"value":200}}`)
	if resp.Status != "error" || resp.Error == "" {
		t.Fatalf("expected error response, got %+v", resp)
	}

	select {
	case ev := <-events:
		t.Errorf("unexpected event %+v for out-of-range value", ev)
	default:
	}
}

func TestIPC_RejectsZeroVelocityNote(t *testing.T) {
	socketPath, _ := startTestIPC(t)

	resp := ipcRequest(t, socketPath, `{"type":"note_on","data":{"id":36,"value":0}}`)
	if resp.Status != "error" {
		t.Fatalf("expected error response, got %+v", resp)
	}
}

func TestIPC_MultipleEventsOnOneConnection(t *testing.T) {
	socketPath, events := startTestIPC(t)

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	decoder := json.NewDecoder(conn)
	for _, line := range []string{
		`{"type":"control_change","data":{"id":20,"value":10}}`,
		`{"type":"control_change","data":{"id":20,"value":20}}`,
	} {
		if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
			t.Fatalf("send: %v", err)
		}
		var resp IPCResponse
		if err := decoder.Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "ok" {
			t.Fatalf("expected ok, got %+v", resp)
		}
	}

	for _, wantVal := range []uint8{10, 20} {
		select {
		case ev := <-events:
			if ev.Value != wantVal {
				t.Errorf("got value %d, want %d", ev.Value, wantVal)
			}
		case <-time.After(time.Second):
			t.Fatal("missing event")
		}
	}
}

func TestBindIPCSocket_ReplacesStaleSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "ipc.sock")
	if err := os.WriteFile(socketPath, []byte("stale"), 0o644); err != nil {
		t.Fatalf("plant stale file: %v", err)
	}

	listener, err := bindIPCSocket(socketPath)
	if err != nil {
		t.Fatalf("bindIPCSocket over stale file: %v", err)
	}
	defer listener.Close()

	if _, err := os.Stat(socketPath); err != nil {
		t.Errorf("socket not present after bind: %v", err)
	}
}
