// ABOUTME: Interactive terminal client for the parley chat service
// ABOUTME: Readline-style input with slash commands and colorized async rendering

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/2389/parley/internal/config"
	"github.com/2389/parley/internal/conversation"
	"github.com/2389/parley/internal/presence"
	"github.com/2389/parley/internal/protocol"
	"github.com/2389/parley/internal/router"
	"github.com/2389/parley/internal/session"
	"github.com/2389/parley/internal/transport"
)

// Version is set by goreleaser at build time.
var version = "dev"

// getConfigPath returns the path to the client config file.
// Priority: PARLEY_CONFIG env var > XDG_CONFIG_HOME/parley/config.yaml > ~/.config/parley/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("PARLEY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "parley.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "parley", "config.yaml")
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/parley/config.yaml)")
	serverURL := flag.String("server", "", "Chat server websocket URL (overrides config)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("parley %s\n", version)
		return
	}

	cfg := loadConfig(*configPath)
	if *serverURL != "" {
		cfg.Server.URL = *serverURL
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

// loadConfig reads the config file, falling back to defaults when the
// default path does not exist. An explicit -config path must exist.
func loadConfig(path string) *config.Config {
	explicit := path != ""
	if !explicit {
		path = getConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return config.Default()
		}
		// Errors here happen before logger setup.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	tokenPath := cfg.Auth.TokenPath
	if tokenPath == "" {
		tokenPath = session.DefaultTokenPath()
	}
	tokens := session.NewFileTokenStore(tokenPath)

	term := newTerminalUI()

	// The controller is created after the channel but before Run starts, so
	// the handler closure never sees a nil controller.
	var ctrl *router.Controller
	channel := transport.New(transport.Options{
		URL:                 cfg.Server.URL,
		DialTimeout:         cfg.Server.DialTimeout,
		ReconnectMinBackoff: cfg.Server.ReconnectMinBackoff,
		ReconnectMaxBackoff: cfg.Server.ReconnectMaxBackoff,
	}, transport.HandlerFunc(func(ev protocol.Inbound) {
		ctrl.HandleEvent(ev)
	}), logger)

	sessions := session.NewManager(channel, tokens, logger)
	online := presence.NewTracker(sessions, logger)
	conversations := conversation.NewStore(conversation.Limits{
		MaxConversations: cfg.History.MaxConversations,
		MaxMessages:      cfg.History.MaxMessages,
	}, logger)
	ctrl = router.New(sessions, online, conversations, channel, term, logger)

	go func() {
		if err := channel.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("transport stopped", "error", err)
		}
	}()

	fmt.Printf("parley connected to %s\n", cfg.Server.URL)
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	return inputLoop(ctx, ctrl, term)
}

func inputLoop(ctx context.Context, ctrl *router.Controller, term *terminalUI) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		term.prompt(ctrl)

		// Read input with context awareness
		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)

		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				if err := scanner.Err(); err != nil {
					errCh <- err
				} else {
					errCh <- io.EOF
				}
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "/quit" || input == "/exit" || input == "/q" {
			return nil
		}

		if strings.HasPrefix(input, "/") {
			if err := handleCommand(ctrl, term, input); err != nil {
				term.errorf("%v", err)
			}
			continue
		}

		if err := ctrl.Send(input); err != nil {
			term.errorf("send failed: %v", err)
		}
	}
}

func handleCommand(ctrl *router.Controller, term *terminalUI, input string) error {
	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		printHelp()
		return nil

	case "/register":
		if len(args) != 2 {
			return fmt.Errorf("usage: /register <username> <password>")
		}
		return ctrl.Register(args[0], args[1])

	case "/login":
		if len(args) != 2 {
			return fmt.Errorf("usage: /login <username> <password>")
		}
		return ctrl.Login(args[0], args[1])

	case "/logout":
		return ctrl.Logout()

	case "/users":
		term.printOnline(ctrl.Online())
		return nil

	case "/chats":
		term.printChats(ctrl.Conversations())
		return nil

	case "/open":
		if len(args) != 1 {
			return fmt.Errorf("usage: /open <username>")
		}
		return openChat(ctrl, term, args[0])

	case "/public":
		ctrl.SwitchToPublic()
		term.noticef("back in the public room")
		return nil

	default:
		return fmt.Errorf("unknown command %s (try /help)", cmd)
	}
}

// openChat finds a peer by identity among the online users, falling back to
// existing conversation labels, and opens the private chat.
func openChat(ctrl *router.Controller, term *terminalUI, name string) error {
	for _, entry := range ctrl.Online() {
		if entry.Identity == name {
			history := ctrl.OpenPrivateChat(entry.ConnectionID, entry.Identity)
			term.printHistory(name, history)
			return nil
		}
	}

	// The peer may have gone offline; an existing conversation still opens.
	for _, summary := range ctrl.Conversations() {
		if summary.PeerLabel == name {
			history := ctrl.OpenPrivateChat(summary.ConnectionID, summary.PeerLabel)
			term.printHistory(name, history)
			return nil
		}
	}

	return fmt.Errorf("no online user or conversation named %q", name)
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /register <user> <pass>  Create an account")
	fmt.Println("  /login <user> <pass>     Log in")
	fmt.Println("  /logout                  Log out and clear the saved session")
	fmt.Println("  /users                   List online users")
	fmt.Println("  /chats                   List private conversations")
	fmt.Println("  /open <username>         Open a private chat")
	fmt.Println("  /public                  Return to the public room")
	fmt.Println("  /help                    Show this help")
	fmt.Println("  /quit                    Exit")
	fmt.Println()
	fmt.Println("Anything else is sent to the active conversation.")
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
