package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/charlesng35/moodtracker/internal/tui"
	"github.com/charlesng35/moodtracker/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	apiURL := os.Getenv("MOODTRACKER_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	if len(args) > 0 {
		switch args[0] {
		case "--version", "version", "-v":
			fmt.Println("moodterm " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		default:
			apiURL = args[0]
		}
	}

	c := client.New(apiURL)
	wsURL, err := c.WebSocketURL()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan tea.Msg)
	go tui.RunFeed(ctx, wsURL, events)

	p := tea.NewProgram(tui.NewApp(c, events), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func printHelp() {
	fmt.Print(`moodterm - terminal client for the mood tracker

Usage:
  moodterm [server-url]

The server URL defaults to $MOODTRACKER_API_URL, then http://localhost:8080.

Keys:
  ←/→ or h/l   select a mood
  enter        set the selected mood
  1-9          set a mood directly
  t            send a test notification
  c            copy the server URL
  r            refresh
  q            quit
`)
}
