package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the midiactions daemon.
//
// The config file is the primary configuration surface; flags exist for small
// overrides and for environments where a file is awkward. Keep defaults and
// validation centralized so the rest of the code can assume a well-formed
// config.
type Config struct {
	// Device selects which MIDI input to listen to.
	Device DeviceConfig `yaml:"device"`

	// Mappings associates controller ids (as strings, 0-127) with actions.
	Mappings map[string]ActionSpec `yaml:"mappings"`

	// IPC configuration (unix socket for synthetic event injection)
	IPC IPCConfig `yaml:"ipc"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

type DeviceConfig struct {
	// Name is matched case-insensitively as a substring against the names of
	// available MIDI input ports.
	Name string `yaml:"name"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go defaults and the CLI defaults.
func DefaultConfig() Config {
	return Config{
		Device:   DeviceConfig{},
		Mappings: map[string]ActionSpec{},
		IPC: IPCConfig{
			SocketPath: defaultIPCSocket,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file.
//
// Notes:
//   - The file must be valid YAML.
//   - Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed
	// after the document).
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides applies overrides from flags on top of a loaded config.
//
// Flags should pass pointers; each override is only applied if the pointer is
// non-nil. Keeping the override mechanism separate makes it easy to evolve
// flags without proliferating conditionals all over the code.
type FlagOverrides struct {
	DeviceName    *string
	IPCSocketPath *string
	LogLevel      *string
}

// Apply merges the overrides into cfg. If an override pointer is nil, it is
// ignored.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.DeviceName != nil {
		cfg.Device.Name = *o.DeviceName
	}
	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
//
// Mapping stanzas are validated separately by BuildMappingTable, which has to
// walk them anyway.
func (c *Config) Validate() error {
	if c.Device.Name == "" {
		return errors.New("device.name must not be empty")
	}
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}
	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}
	return nil
}

// MappingTable associates controller ids with their configured actions.
// It is built once at startup and read-only afterwards; the dispatch engine
// never mutates it, so it needs no locking.
type MappingTable map[uint8]Action

// BuildMappingTable converts the config's string-keyed mapping stanzas into
// the runtime table.
//
// Keys that do not parse as integers in [0,127] are dropped silently; a user
// may intentionally comment out an id by mangling it, and config formats keep
// map keys as strings anyway. A key that parses but carries an invalid action
// stanza is a configuration error and aborts startup.
func BuildMappingTable(specs map[string]ActionSpec) (MappingTable, error) {
	table := make(MappingTable, len(specs))
	for key, spec := range specs {
		id, err := strconv.Atoi(key)
		if err != nil || id < 0 || id > maxControllerID {
			continue
		}
		action, err := spec.ToAction()
		if err != nil {
			return nil, fmt.Errorf("mapping %q: %w", key, err)
		}
		table[uint8(id)] = action
	}
	return table, nil
}

// KeyCodes returns the distinct key codes named by Key mappings, sorted, for
// key sink pre-registration.
func (t MappingTable) KeyCodes() []string {
	seen := make(map[string]struct{})
	for _, action := range t {
		if k, ok := action.(KeyAction); ok {
			seen[k.Code] = struct{}{}
		}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ExpandPath expands a leading "~" in a path using $HOME.
// This is handy for config values like ipc.socket_path.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
