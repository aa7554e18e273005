package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
)

// ============================================================================
// midictl - Command-line IPC Client
// ============================================================================
// Sends synthetic controller events to the midiactions daemon via its unix
// domain socket, so mappings can be exercised without the hardware.
//
// Usage:
//   midictl note <id> [velocity]
//   midictl cc <id> <value>
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/midiactions.sock)
// ============================================================================

const defaultSocketPath = "/tmp/midiactions.sock"

// ControlInput mirrors the daemon's injected event payload
// (duplicated from the main package for a standalone binary).
type ControlInput struct {
	ID    uint8 `json:"id"`
	Value uint8 `json:"value"`
}

// EventEnvelope wraps events for JSON
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// IPCResponse represents the daemon's response
type IPCResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func printUsage() {
	fmt.Println("midictl - inject synthetic controller events into midiactions")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  midictl [-socket PATH] note <id> [velocity]")
	fmt.Println("  midictl [-socket PATH] cc <id> <value>")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  midictl note 36          # press pad 36 (velocity 127)")
	fmt.Println("  midictl cc 20 64         # set knob 20 to mid-position")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Printf("  -socket PATH    Unix domain socket path (default: %s)\n", defaultSocketPath)
}

// expandPath expands a leading "~" using $HOME, matching the daemon's
// handling of ipc.socket_path.
func expandPath(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && p[1] == '/' {
		return filepath.Join(home, p[2:])
	}
	return p
}

func parseByte(arg, what string) uint8 {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || n > 127 {
		fmt.Fprintf(os.Stderr, "error: %s must be an integer 0-127, got %q\n", what, arg)
		os.Exit(1)
	}
	return uint8(n)
}

func main() {
	socketPath := defaultSocketPath

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Check for -socket flag
	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = expandPath(args[1])
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	var envType string
	var input ControlInput

	switch args[0] {
	case "note":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "error: note requires an id")
			os.Exit(1)
		}
		envType = "note_on"
		input.ID = parseByte(args[1], "id")
		input.Value = 127
		if len(args) >= 3 {
			input.Value = parseByte(args[2], "velocity")
		}

	case "cc":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "error: cc requires an id and a value")
			os.Exit(1)
		}
		envType = "control_change"
		input.ID = parseByte(args[1], "id")
		input.Value = parseByte(args[2], "value")

	case "help", "-help", "--help", "-h":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err := sendEvent(socketPath, envType, input); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println("ok")
}

// sendEvent connects to the daemon, sends one event and reads the response.
func sendEvent(socketPath, envType string, input ControlInput) error {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s (is the daemon running?): %w", socketPath, err)
	}
	defer conn.Close()

	data, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	payload, err := json.Marshal(EventEnvelope{Type: envType, Data: data})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if _, err := fmt.Fprintf(conn, "%s\n", payload); err != nil {
		return fmt.Errorf("send event: %w", err)
	}

	decoder := json.NewDecoder(conn)
	var resp IPCResponse
	if err := decoder.Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("daemon error: %s", resp.Error)
	}
	return nil
}
