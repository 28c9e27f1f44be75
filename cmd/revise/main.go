package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sokinpui/revise/cli"
	"github.com/sokinpui/revise/internal/app"
	"github.com/sokinpui/revise/internal/tui"
	"github.com/sokinpui/revise/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := cli.ParseFlags()
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		return 1
	}
	defer a.Close()

	ctx := context.Background()

	// Everything but the interactive review prints straight to the terminal.
	if !a.Interactive() {
		summary, err := a.Execute(ctx)
		if err != nil {
			var detailed *app.DetailedError
			if errors.As(err, &detailed) {
				fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
			}
			ui.Error("Error: %v", err)
			return 1
		}
		ui.PrintSummary(summary)
		return 0
	}

	model := tui.New(ctx, a, cfg.NoAnimation)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		return 1
	}
	if _, err := final.(tui.Model).Summary(); err != nil {
		return 1
	}
	return 0
}
