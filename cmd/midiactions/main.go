package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("midiactions v%s\n", version)
	fmt.Println("MIDI control surface to keyboard/shell-command daemon")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  midiactions [OPTIONS]")
	fmt.Println("  midiactions setup [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Daemon that listens to one MIDI control surface and translates its")
	fmt.Println("  messages into host-side effects: synthetic key taps (uinput), detached")
	fmt.Println("  shell commands, and continuous-value command templates (e.g. volume).")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Printf("        Path to the YAML configuration file (default %q)\n", defaultConfigPath)
	fmt.Println()
	fmt.Println("  -device string")
	fmt.Println("        Override device.name from the config (substring match against")
	fmt.Println("        MIDI input port names, case-insensitive)")
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Printf("        Override the unix domain socket path for IPC (default %q)\n", defaultIPCSocket)
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("SUBCOMMANDS:")
	fmt.Println("  setup")
	fmt.Println("        Discovery mode: print incoming frames and suggested mapping")
	fmt.Println("        stanzas for authoring the configuration file")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start the daemon with the default config file")
	fmt.Println("  midiactions")
	fmt.Println()
	fmt.Println("  # Explicit config and device")
	fmt.Println("  midiactions -config ~/.config/midiactions/config.yaml -device nanoKONTROL")
	fmt.Println()
	fmt.Println("  # Find controller ids for a new device")
	fmt.Println("  midiactions setup")
	fmt.Println()
	fmt.Println("  # Inject a synthetic event without the hardware (see midictl)")
	fmt.Println("  midictl cc 20 64")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Key injection uses /dev/uinput; run as root or add your user to the")
	fmt.Println("    'input' group when key mappings are configured")
	fmt.Println("  - Commands are spawned via `sh -c`, detached; exit status is not observed")
	fmt.Println()
}

func main() {
	// Check for subcommand mode (setup/discovery) first
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		runSetupSubcommand()
		return
	}

	// Check for version/help flags early
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	// Parse command-line flags
	var (
		configPath  = flag.String("config", defaultConfigPath, "Path to the YAML configuration file")
		deviceName  = flag.String("device", "", "Override MIDI device name from config")
		ipcSocket   = flag.String("ipc-socket", "", "Override unix domain socket path for IPC")
		logLevelStr = flag.String("log-level", "", "Log level: error, warn, info, debug")
		showVersion = flag.Bool("version", false, "Print version and exit")
		showHelp    = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	// Load config file, then apply flag overrides on top
	cfg, err := LoadConfigFile(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	overrides := FlagOverrides{}
	if *deviceName != "" {
		overrides.DeviceName = deviceName
	}
	if *ipcSocket != "" {
		overrides.IPCSocketPath = ipcSocket
	}
	if *logLevelStr != "" {
		overrides.LogLevel = logLevelStr
	}
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	// Build the mapping table; after this point it is read-only.
	table, err := BuildMappingTable(cfg.Mappings)
	if err != nil {
		logger.Error("invalid mapping configuration", "error", err)
		os.Exit(1)
	}
	if len(table) == 0 {
		logger.Warn("no usable mappings configured; daemon will only log")
	}

	// Key sink is only constructed when the table names keys, so command-only
	// configs don't require uinput access.
	var keySink KeySink = disabledKeySink{}
	if codes := table.KeyCodes(); len(codes) > 0 {
		keySink, err = NewKeySink(codes, logger)
		if err != nil {
			logger.Error("key sink setup failed", "error", err)
			os.Exit(1)
		}
	}
	defer keySink.Close()

	// Connect to the MIDI device; a missing device is fatal.
	listener, err := NewMIDIListener(cfg.Device.Name)
	if err != nil {
		logger.Error("midi setup failed", "device", cfg.Device.Name, "error", err)
		os.Exit(1)
	}
	defer listener.Close()

	// Bind the IPC socket before entering the dispatch loop.
	socketPath := ExpandPath(cfg.IPC.SocketPath)
	ipcListener, err := bindIPCSocket(socketPath)
	if err != nil {
		logger.Error("failed to start IPC server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := make(chan []byte, eventBufferSize)
	injected := make(chan ControlEvent, eventBufferSize)
	readErr := make(chan error, 1)

	if err := listener.Start(frames, readErr, logger); err != nil {
		logger.Error("midi listen failed", "error", err)
		os.Exit(1)
	}

	go serveIPC(ctx, ipcListener, socketPath, injected, logger)

	store := NewStateStore()
	sinks := Sinks{Keys: keySink, Commands: ShellCommandSink{}}

	// Handle shutdown
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	logger.Debug("configuration",
		"config", *configPath,
		"device", cfg.Device.Name,
		"ipc_socket", socketPath,
		"mappings", len(table),
		"log_level", cfg.Logging.Level)
	logger.Info("listening",
		"port", listener.PortName(),
		"mappings", len(table),
		"ipc", socketPath)

	done := make(chan struct{})
	go func() {
		defer close(done)
		runDaemon(ctx, frames, injected, table, store, sinks, logger)
	}()

	select {
	case <-sigc:
		logger.Info("shutting down")
		cancel()
	case err := <-readErr:
		logger.Error("midi listener stopped", "error", err)
		cancel()
	}
	<-done
}

func printSetupUsage() {
	fmt.Printf("midiactions setup v%s\n", version)
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  midiactions setup [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Discovery mode for authoring configuration. Prints every incoming MIDI")
	fmt.Println("  frame with its classification and a ready-to-paste YAML mapping stanza")
	fmt.Println("  for detected knobs and buttons. No dispatch, no state.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -port string")
	fmt.Println("        Exact name of the MIDI input port to listen to")
	fmt.Println("        (default: the last reported port)")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
}

// runSetupSubcommand handles the setup subcommand mode
func runSetupSubcommand() {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	portName := fs.String("port", "", "Exact name of the MIDI input port to listen to")
	showHelp := fs.Bool("help", false, "Print help message")

	fs.Usage = printSetupUsage

	// Parse flags (skip the "setup" subcommand name)
	fs.Parse(os.Args[2:])

	if *showHelp {
		printSetupUsage()
		return
	}

	if err := runSetupMode(*portName); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
