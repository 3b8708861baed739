// Package interactive provides the command prompt for chatwire-repl.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/chatwire/chatwire-go/pkg/client"
)

// REPL handles the interactive prompt for chatwire-repl.
type REPL struct {
	cli    *client.Client
	config *client.Config
	rl     *readline.Instance
}

// New creates the prompt and registers the client event callbacks that
// print asynchronous events above the input line.
func New(cli *client.Client, config *client.Config) (*REPL, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "chatwire> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	r := &REPL{
		cli:    cli,
		config: config,
		rl:     rl,
	}
	r.registerCallbacks()
	return r, nil
}

// Stdout returns a writer that coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (r *REPL) Stdout() io.Writer {
	return r.rl.Stdout()
}

// Run starts the interactive command loop.
func (r *REPL) Run(ctx context.Context, cancel context.CancelFunc) {
	defer r.rl.Close()

	r.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(r.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			r.printHelp()

		case "connect", "c":
			r.cmdConnect(ctx)

		case "auth", "a":
			r.cmdAuth(ctx)

		case "send", "s":
			r.cmdSend(ctx, args)

		case "status":
			r.cmdStatus()

		case "disconnect", "d":
			r.cli.Disconnect()
			fmt.Fprintln(r.rl.Stdout(), "Disconnected")

		case "quit", "exit", "q":
			fmt.Fprintln(r.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(r.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.rl.Stdout(), `
ChatWire Commands:
  Connection:
    connect              - Open the bridge channel
    auth                 - Run the configured authentication flow
    disconnect           - Close the bridge channel

  Messaging:
    send <target> <text> - Send a message

  General:
    status               - Show connection and session status
    help                 - Show this help
    quit                 - Exit`)
}

// registerCallbacks wires client events to the prompt output.
func (r *REPL) registerCallbacks() {
	out := r.rl.Stdout()

	r.cli.OnConnected(func() {
		fmt.Fprintf(out, "\n[%s] Connected\n", timestamp())
		r.rl.Refresh()
	})
	r.cli.OnDisconnected(func() {
		fmt.Fprintf(out, "\n[%s] Disconnected\n", timestamp())
		r.rl.Refresh()
	})
	r.cli.OnReconnecting(func(attempt uint, delay time.Duration) {
		fmt.Fprintf(out, "\n[%s] Reconnecting (attempt %d, in %s)\n", timestamp(), attempt, delay)
		r.rl.Refresh()
	})
	r.cli.OnReady(func() {
		fmt.Fprintf(out, "\n[%s] Session ready\n", timestamp())
		r.rl.Refresh()
	})
	r.cli.OnQR(func(payload string, updated bool) {
		label := "Scan this QR payload with your phone"
		if updated {
			label = "QR payload refreshed"
		}
		fmt.Fprintf(out, "\n[%s] %s:\n  %s\n", timestamp(), label, payload)
		r.rl.Refresh()
	})
	r.cli.OnPairingCode(func(code string) {
		fmt.Fprintf(out, "\n[%s] Enter this code on your phone: %s\n", timestamp(), code)
		r.rl.Refresh()
	})
	r.cli.OnMessage(func(msg client.Message) {
		fmt.Fprintf(out, "\n[%s] %s: %s\n", timestamp(), msg.From, msg.Text)
		r.rl.Refresh()
	})
	r.cli.OnError(func(err error) {
		fmt.Fprintf(out, "\n[%s] Error: %v\n", timestamp(), err)
		r.rl.Refresh()
	})
	r.cli.OnMaxReconnectAttemptsReached(func() {
		fmt.Fprintf(out, "\n[%s] Gave up reconnecting; use 'connect' to retry\n", timestamp())
		r.rl.Refresh()
	})
}

// cmdConnect handles the connect command.
func (r *REPL) cmdConnect(ctx context.Context) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := r.cli.Connect(connectCtx); err != nil {
		fmt.Fprintf(r.rl.Stdout(), "Connect failed: %v\n", err)
	}
}

// cmdAuth runs the configured authentication flow. Blocks until the
// phone confirms, the attempt window elapses, or a new attempt starts.
func (r *REPL) cmdAuth(ctx context.Context) {
	fmt.Fprintf(r.rl.Stdout(), "Authenticating (%s)...\n", r.config.AuthStrategy)

	if err := r.cli.Authenticate(ctx); err != nil {
		fmt.Fprintf(r.rl.Stdout(), "Authentication failed: %v\n", err)
		return
	}
	fmt.Fprintln(r.rl.Stdout(), "Authenticated")
}

// cmdSend handles the send command.
func (r *REPL) cmdSend(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(r.rl.Stdout(), "Usage: send <target> <text>")
		fmt.Fprintln(r.rl.Stdout(), "  Example: send +15550001111 hello there")
		return
	}

	target := args[0]
	text := strings.Join(args[1:], " ")

	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := r.cli.SendText(sendCtx, target, text); err != nil {
		fmt.Fprintf(r.rl.Stdout(), "Send failed: %v\n", err)
		return
	}
	fmt.Fprintln(r.rl.Stdout(), "Sent")
}

// cmdStatus shows the connection and session status.
func (r *REPL) cmdStatus() {
	session := r.cli.Session()

	fmt.Fprintln(r.rl.Stdout(), "\nClient Status")
	fmt.Fprintln(r.rl.Stdout(), "-------------------------------------------")
	fmt.Fprintf(r.rl.Stdout(), "  Session:        %s\n", r.config.SessionName)
	fmt.Fprintf(r.rl.Stdout(), "  Bridge:         %s\n", r.config.BridgeURL)
	fmt.Fprintf(r.rl.Stdout(), "  State:          %s\n", r.cli.State())
	fmt.Fprintf(r.rl.Stdout(), "  Authenticated:  %v\n", session.Authenticated)
	fmt.Fprintf(r.rl.Stdout(), "  Ready:          %v\n", session.Ready)
	if session.ReconnectAttempts > 0 {
		fmt.Fprintf(r.rl.Stdout(), "  Reconnects:     %d\n", session.ReconnectAttempts)
	}
	if !session.LastHeartbeat.IsZero() {
		fmt.Fprintf(r.rl.Stdout(), "  Last heartbeat: %s\n", session.LastHeartbeat.Format("15:04:05"))
	}
	if err := r.cli.LastError(); err != nil {
		fmt.Fprintf(r.rl.Stdout(), "  Last error:     %v\n", err)
	}
	fmt.Fprintln(r.rl.Stdout())
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}
