package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const (
	CmdDiff    = "diff"
	CmdReview  = "review"
	CmdHistory = "history"
	CmdRevert  = "revert"
	CmdServe   = "serve"
)

// ErrHelp is returned when usage was requested and printed.
var ErrHelp = pflag.ErrHelp

// Config holds all the command-line flag values.
type Config struct {
	Command string
	Args    []string

	ConfigPath  string
	JSON        bool
	Buffer      bool
	NoAnimation bool
	AcceptAll   bool
	Author      string
	Summary     string
	Addr        string
	Store       string
	DB          string
	LogLevel    string
	Limit       int
	Offset      int
}

// usage lines per command: arguments and description.
var commands = []struct {
	name, args, help string
	nargs            int
}{
	{CmdDiff, "OLD NEW", "Show an annotated diff of two markdown files.", 2},
	{CmdReview, "FILE", "Review new content for FILE read from stdin or the clipboard.", 1},
	{CmdHistory, "FILE", "List the recorded versions of FILE, newest first.", 1},
	{CmdRevert, "FILE VERSION", "Restore FILE to a recorded version.", 2},
	{CmdServe, "", "Serve the HTTP API.", 0},
}

// ParseFlags parses os.Args.
func ParseFlags() (*Config, error) {
	return ParseArgs(os.Args[1:], os.Stderr)
}

// ParseArgs parses a command line of the form COMMAND [flags] ARGS.
func ParseArgs(args []string, out io.Writer) (*Config, error) {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		printUsage(out)
		if len(args) == 0 {
			return nil, errors.New("missing command")
		}
		return nil, ErrHelp
	}

	cfg := &Config{Command: args[0]}
	nargs := -1
	for _, c := range commands {
		if c.name == cfg.Command {
			nargs = c.nargs
		}
	}
	if nargs < 0 {
		printUsage(out)
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}

	fs := pflag.NewFlagSet("revise "+cfg.Command, pflag.ContinueOnError)
	fs.SetOutput(out)

	// Shared flags
	fs.StringVarP(&cfg.ConfigPath, "config", "c", "", "Path to the config file.")
	fs.StringVar(&cfg.Store, "store", "", "History backend: memory, sqlite or badger.")
	fs.StringVar(&cfg.DB, "db", "", "History database path (sqlite file or badger directory).")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level: debug, info, warn or error.")

	switch cfg.Command {
	case CmdDiff:
		fs.BoolVar(&cfg.JSON, "json", false, "Print the annotated document as JSON.")
	case CmdReview:
		fs.BoolVarP(&cfg.Buffer, "buffer", "b", false, "Update the buffer in Neovim without saving it to disk.")
		fs.BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable the loading spinner.")
		fs.BoolVarP(&cfg.AcceptAll, "yes", "y", false, "Accept every change without the interactive review.")
		fs.StringVar(&cfg.Author, "author", "agent", "Author of the proposed content: human or agent.")
		fs.StringVarP(&cfg.Summary, "summary", "m", "", "Summary recorded with the new version.")
	case CmdHistory:
		fs.BoolVar(&cfg.JSON, "json", false, "Print the versions as JSON.")
		fs.IntVarP(&cfg.Limit, "limit", "n", 20, "Maximum number of versions to list; 0 lists all.")
		fs.IntVar(&cfg.Offset, "offset", 0, "Number of newest versions to skip.")
	case CmdRevert:
		fs.BoolVarP(&cfg.Buffer, "buffer", "b", false, "Update the buffer in Neovim without saving it to disk.")
		fs.StringVarP(&cfg.Summary, "summary", "m", "", "Summary recorded with the revert.")
	case CmdServe:
		fs.StringVar(&cfg.Addr, "addr", "", "Listen address, overriding server.addr.")
	}

	fs.Usage = func() {
		for _, c := range commands {
			if c.name == cfg.Command {
				fmt.Fprintf(out, "Usage: revise %s [flags] %s\n\n%s\n\nFlags:\n", c.name, c.args, c.help)
			}
		}
		fs.PrintDefaults()
	}

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	cfg.Args = fs.Args()
	if len(cfg.Args) != nargs {
		fs.Usage()
		return nil, fmt.Errorf("%s expects %d argument(s), got %d", cfg.Command, nargs, len(cfg.Args))
	}
	if cfg.Limit < 0 || cfg.Offset < 0 {
		return nil, errors.New("--limit and --offset must not be negative")
	}
	return cfg, nil
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage: revise COMMAND [flags] [args]")
	fmt.Fprintln(out, "\nReview proposed markdown changes line by line and keep a version history.")
	fmt.Fprintln(out, "\nExample: pbpaste | revise review notes.md")
	fmt.Fprintln(out, "\nCommands:")
	for _, c := range commands {
		fmt.Fprintf(out, "  %-8s %-13s %s\n", c.name, c.args, c.help)
	}
}
