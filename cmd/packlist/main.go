package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hpungsan/packlist/internal/config"
	"github.com/hpungsan/packlist/internal/db"
	"github.com/hpungsan/packlist/internal/logging"
	"github.com/hpungsan/packlist/internal/mcp"
	"github.com/hpungsan/packlist/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"show": true, "trip": true, "generate": true, "add": true,
	"toggle": true, "delete": true, "move": true, "weather": true,
	"reset": true, "templates": true, "share": true, "open": true,
	"export": true, "serve": true, "mcp": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
                   _    _ _     _
   _ __   __ _  ___| | _| (_)___| |_
  | '_ \ / _' |/ __| |/ / | / __| __|
  | |_) | (_| | (__|   <| | \__ \ |_
  | .__/ \__,_|\___|_|\_\_|_|___/\__|
  |_|

  Trip packing checklists

  Usage: packlist <command> [options]
         packlist serve      (web UI)
         packlist --help

  MCP server mode requires piped input.`)
}

// warnUnknownDisabled logs disabled tool and type names the MCP server does
// not know about.
func warnUnknownDisabled(cfg *config.Config) {
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		slog.Warn("unknown disabled_tools in config", "names", unknown)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		slog.Warn("unknown disabled_types in config", "names", unknown)
	}
}

func main() {
	logging.Setup()

	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// help and version need no database
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, config.Dir)

	cwd, err := os.Getwd()
	if err != nil {
		cwd = homeDir
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	pack, err := ops.New(database, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load checklist: %v\n", err)
		os.Exit(1)
	}
	defer pack.Close()

	if isCLIMode() {
		app := newCLIApp(pack)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			pack.Close()
			database.Close()
			os.Exit(1)
		}
		return
	}

	// unknown argument on a terminal: don't start the MCP server
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'packlist --help' for usage.\n")
		os.Exit(1)
	}

	warnUnknownDisabled(cfg)
	if err := mcp.Run(pack, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
