// Command chatwire-repl is an interactive ChatWire client.
//
// It connects to a local bridge process, runs one of the authentication
// flows, and then lets you send messages from a command prompt while
// inbound messages and connection events are printed as they arrive.
//
// Usage:
//
//	chatwire-repl [flags]
//
// Flags:
//
//	-config string      Configuration file path (YAML)
//	-session string     Session name (default "default")
//	-bridge-url string  Bridge WebSocket URL
//	-auth string        Auth strategy: qr, pairing, session-restore
//	-phone string       Phone number (required for pairing)
//	-log-file string    Write client events to a CBOR log file
//	-verbose            Print client events to stderr
//
// Examples:
//
//	# First run: link via QR code
//	chatwire-repl -session work -auth qr
//
//	# Subsequent runs restore the stored session
//	chatwire-repl -session work
//
//	# Link via pairing code instead of QR
//	chatwire-repl -session work -auth pairing -phone +15550001111
//
// Interactive Commands:
//
//	connect              - Open the bridge channel
//	auth                 - Run the configured authentication flow
//	send <target> <text> - Send a message
//	status               - Show connection and session status
//	disconnect           - Close the bridge channel
//	quit                 - Exit
package main

import (
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chatwire/chatwire-go/cmd/chatwire-repl/interactive"
	"github.com/chatwire/chatwire-go/pkg/client"
	"github.com/chatwire/chatwire-go/pkg/log"

	"context"
	"flag"
)

var flags struct {
	configFile string
	session    string
	bridgeURL  string
	auth       string
	phone      string
	logFile    string
	verbose    bool
}

func init() {
	flag.StringVar(&flags.configFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&flags.session, "session", "", "Session name")
	flag.StringVar(&flags.bridgeURL, "bridge-url", "", "Bridge WebSocket URL")
	flag.StringVar(&flags.auth, "auth", "", "Auth strategy: qr, pairing, session-restore")
	flag.StringVar(&flags.phone, "phone", "", "Phone number (required for pairing)")
	flag.StringVar(&flags.logFile, "log-file", "", "Write client events to a CBOR log file")
	flag.BoolVar(&flags.verbose, "verbose", false, "Print client events to stderr")
}

func main() {
	flag.Parse()
	stdlog.SetFlags(stdlog.Ltime)

	config, err := buildConfig()
	if err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}

	logger, cleanup, err := buildLogger()
	if err != nil {
		stdlog.Fatalf("Failed to set up logging: %v", err)
	}
	defer cleanup()
	config.Logger = logger

	cli, err := client.New(config)
	if err != nil {
		stdlog.Fatalf("Failed to create client: %v", err)
	}

	stdlog.Printf("ChatWire REPL (session %q, bridge %s)", config.SessionName, config.BridgeURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repl, err := interactive.New(cli, &config)
	if err != nil {
		stdlog.Fatalf("Failed to create prompt: %v", err)
	}
	// Route log output through readline so events don't clobber the prompt.
	stdlog.SetOutput(repl.Stdout())
	go repl.Run(ctx, cancel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		stdlog.Printf("Received signal: %v", sig)
	case <-ctx.Done():
		// Quit command
	}

	stdlog.SetOutput(os.Stderr)
	cli.Close()
}

// buildConfig layers the command-line flags over the config file (or
// the defaults when no file is given).
func buildConfig() (client.Config, error) {
	config := client.DefaultConfig()
	if flags.configFile != "" {
		loaded, err := client.LoadConfig(flags.configFile)
		if err != nil {
			return config, err
		}
		config = loaded
	}

	if flags.session != "" {
		config.SessionName = flags.session
	}
	if flags.bridgeURL != "" {
		config.BridgeURL = flags.bridgeURL
	}
	if flags.auth != "" {
		config.AuthStrategy = flags.auth
	}
	if flags.phone != "" {
		config.PhoneNumber = flags.phone
	}

	return config, config.Validate()
}

// buildLogger assembles the event logger from the log flags.
func buildLogger() (log.Logger, func(), error) {
	var loggers []log.Logger
	cleanup := func() {}

	if flags.logFile != "" {
		fl, err := log.NewFileLogger(flags.logFile)
		if err != nil {
			return nil, cleanup, err
		}
		loggers = append(loggers, fl)
		cleanup = func() { _ = fl.Close() }
	}
	if flags.verbose {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		loggers = append(loggers, log.NewSlogAdapter(slog.New(handler)))
	}

	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, cleanup, nil
	case 1:
		return loggers[0], cleanup, nil
	default:
		return log.NewMultiLogger(loggers...), cleanup, nil
	}
}
