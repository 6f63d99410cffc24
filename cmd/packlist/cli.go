package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/packlist/internal/checklist"
	"github.com/hpungsan/packlist/internal/errors"
	"github.com/hpungsan/packlist/internal/export"
	"github.com/hpungsan/packlist/internal/mcp"
	"github.com/hpungsan/packlist/internal/ops"
	"github.com/hpungsan/packlist/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(pack *ops.App) *cli.App {
	app := &cli.App{
		Name:    "packlist",
		Usage:   "Trip packing checklists",
		Version: Version,
		Commands: []*cli.Command{
			showCmd(pack),
			tripCmd(pack),
			generateCmd(pack),
			addCmd(pack),
			toggleCmd(pack),
			deleteCmd(pack),
			moveCmd(pack),
			weatherCmd(pack),
			resetCmd(pack),
			templatesCmd(pack),
			shareCmd(pack),
			openCmd(pack),
			exportCmd(pack),
			serveCmd(pack),
			mcpCmd(pack),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// showCmd creates the show command.
func showCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print the checklist",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "markdown", Aliases: []string{"md"}, Usage: "Print a Markdown task list instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			s := pack.State()
			if c.Bool("markdown") {
				_, err := io.WriteString(c.App.Writer, export.Markdown(s))
				return err
			}
			return outputJSON(c, ops.NewChecklistView(s))
		},
	}
}

// tripCmd creates the trip command.
func tripCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:  "trip",
		Usage: "Update trip details (only the flags given change)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "city", Aliases: []string{"c"}, Usage: "Destination city"},
			&cli.StringFlag{Name: "country", Usage: "Destination country"},
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Usage: "Trip length in days"},
			&cli.StringFlag{Name: "activities", Aliases: []string{"a"}, Usage: "Comma-separated activity keys (empty clears)"},
			&cli.BoolFlag{Name: "generate", Aliases: []string{"g"}, Usage: "Regenerate items afterwards"},
		},
		Action: func(c *cli.Context) error {
			var patch checklist.TripPatch
			if c.IsSet("city") {
				city := c.String("city")
				patch.City = &city
			}
			if c.IsSet("country") {
				country := c.String("country")
				patch.Country = &country
			}
			if c.IsSet("days") {
				days := c.Int("days")
				patch.DurationDays = &days
			}
			if c.IsSet("activities") {
				activities := parseList(c.String("activities"))
				patch.Activities = &activities
			}

			s := pack.UpdateTrip(patch)
			if c.Bool("generate") {
				s = pack.Generate()
			}
			return outputJSON(c, ops.NewChecklistView(s))
		},
	}
}

// generateCmd creates the generate command.
func generateCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Rebuild rule-derived items for the current trip",
		Action: func(c *cli.Context) error {
			return outputJSON(c, ops.NewChecklistView(pack.Generate()))
		},
	}
}

// addCmd creates the add command.
func addCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a custom item (asks before merging into a same-label item)",
		ArgsUsage: "<label>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "group", Aliases: []string{"g"}, Value: checklist.GroupOther, Usage: "Group tag"},
			&cli.StringFlag{Name: "bag", Aliases: []string{"b"}, Value: string(checklist.BagCarryOn), Usage: "Bag: carryOn|checked|personal|work"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Merge duplicates without asking"},
			&cli.BoolFlag{Name: "no", Usage: "Never merge duplicates"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("yes") && c.Bool("no") {
				return outputError(errors.NewInvalidRequest("--yes and --no are mutually exclusive"))
			}

			in := ops.AddInput{
				Label: strings.Join(c.Args().Slice(), " "),
				Group: c.String("group"),
				Bag:   c.String("bag"),
			}
			switch {
			case c.Bool("yes"):
				in.Confirm = func(_, _ checklist.Item) bool { return true }
			case c.Bool("no"):
				in.Confirm = func(_, _ checklist.Item) bool { return false }
			default:
				in.Confirm = promptConfirmer(c.App.Reader, c.App.ErrWriter)
			}

			output, err := pack.AddCustomItem(in)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// toggleCmd creates the toggle command.
func toggleCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:      "toggle",
		Usage:     "Flip (or set) an item's packed flag",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "packed", Usage: "Mark packed"},
			&cli.BoolFlag{Name: "unpacked", Usage: "Mark unpacked"},
		},
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "id")
			if err != nil {
				return err
			}

			var checked *bool
			switch {
			case c.Bool("packed") && c.Bool("unpacked"):
				return outputError(errors.NewInvalidRequest("--packed and --unpacked are mutually exclusive"))
			case c.Bool("packed"):
				v := true
				checked = &v
			case c.Bool("unpacked"):
				v := false
				checked = &v
			}

			item, err := pack.ToggleItem(id, checked)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, item)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Remove an item",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "id")
			if err != nil {
				return err
			}
			item, err := pack.DeleteItem(id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, map[string]any{"deleted": true, "item": item})
		},
	}
}

// moveCmd creates the move command.
func moveCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:      "move",
		Usage:     "Move an item to another bag",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bag", Aliases: []string{"b"}, Required: true, Usage: "Target bag: carryOn|checked|personal|work"},
		},
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "id")
			if err != nil {
				return err
			}
			result, err := pack.MoveItem(id, c.String("bag"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, result)
		},
	}
}

// weatherCmd creates the weather command.
func weatherCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:  "weather",
		Usage: "Look up the forecast for the trip city and refresh weather items",
		Action: func(c *cli.Context) error {
			status := pack.RefreshWeather(c.Context)
			if status.State == ops.WeatherError {
				return cli.Exit(fmt.Sprintf("[%s] %s", errors.ErrWeatherUnavailable, status.Message), 1)
			}
			return outputJSON(c, status)
		},
	}
}

// resetCmd creates the reset command.
func resetCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Discard the checklist and start over from the configured defaults",
		Action: func(c *cli.Context) error {
			return outputJSON(c, ops.NewChecklistView(pack.Reset()))
		},
	}
}

// templatesCmd creates the templates command group.
func templatesCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:  "templates",
		Usage: "Manage checklist templates",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List built-in and saved templates",
				Action: func(c *cli.Context) error {
					templates, err := pack.ListTemplates()
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, map[string]any{"templates": templates})
				},
			},
			{
				Name:      "show",
				Usage:     "Preview what applying a template would change",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "id")
					if err != nil {
						return err
					}
					diff, err := pack.DiffTemplate(id)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, diff)
				},
			},
			{
				Name:      "apply",
				Usage:     "Apply a template to the checklist",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(checklist.ApplyMerge), Usage: "Apply mode: merge|replace"},
				},
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "id")
					if err != nil {
						return err
					}
					result, err := pack.ApplyTemplate(id, checklist.ApplyMode(c.String("mode")))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, result)
				},
			},
			{
				Name:  "save",
				Usage: "Save the current items as a template",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Template name (an existing name is updated)"},
					&cli.StringFlag{Name: "description", Usage: "Template description"},
				},
				Action: func(c *cli.Context) error {
					output, err := pack.SaveTemplate(ops.SaveTemplateInput{
						Name:        c.String("name"),
						Description: c.String("description"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a saved template",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "id")
					if err != nil {
						return err
					}
					if err := pack.DeleteTemplate(id); err != nil {
						return outputError(err)
					}
					return outputJSON(c, map[string]any{"id": id, "deleted": true})
				},
			},
			{
				Name:  "export",
				Usage: "Export saved templates to a JSONL file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.packlist/exports/templates-<timestamp>.jsonl)"},
				},
				Action: func(c *cli.Context) error {
					output, err := pack.ExportTemplates(c.Context, ops.ExportTemplatesInput{Path: c.String("path")})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
			{
				Name:  "import",
				Usage: "Import templates from a JSONL file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
					&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(ops.ImportModeError), Usage: "Collision mode: error|replace|rename"},
				},
				Action: func(c *cli.Context) error {
					output, err := pack.ImportTemplates(ops.ImportTemplatesInput{
						Path: c.String("path"),
						Mode: ops.ImportMode(c.String("mode")),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
		},
	}
}

// shareCmd creates the share command.
func shareCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:  "share",
		Usage: "Print a share link for the checklist",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "base", Usage: "Base URL (default: share_base_url, else the web UI address)"},
		},
		Action: func(c *cli.Context) error {
			link, err := pack.ShareURL(c.String("base"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, map[string]any{"url": link})
		},
	}
}

// openCmd creates the open command.
func openCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Replace the checklist with the one carried by a share link",
		ArgsUsage: "<link>",
		Action: func(c *cli.Context) error {
			link, err := requireArg(c, "link")
			if err != nil {
				return err
			}
			s, err := pack.OpenShareLink(link)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, ops.NewChecklistView(s))
		},
	}
}

// exportCmd creates the export command.
func exportCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the checklist as a Markdown or printable HTML document",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: string(export.FormatMarkdown), Usage: "Document format: markdown|html"},
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: ~/.packlist/exports/checklist-<timestamp>.<ext>)"},
		},
		Action: func(c *cli.Context) error {
			output, err := pack.ExportDocument(ops.ExportDocumentInput{
				Format: c.String("format"),
				Path:   c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (default: web_bind)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (default: web_port)"},
		},
		Action: func(c *cli.Context) error {
			cfg := pack.Config()
			if c.IsSet("bind") {
				cfg.WebBind = c.String("bind")
			}
			if c.IsSet("port") {
				cfg.WebPort = c.Int("port")
			}
			srv, err := web.NewServer(pack, Version)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			fmt.Fprintf(c.App.ErrWriter, "packlist web UI on http://%s\n", srv.Addr)
			return web.Run(srv)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(pack *ops.App) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			warnUnknownDisabled(pack.Config())
			return mcp.Run(pack, Version)
		},
	}
}

// Helper functions

// outputJSON marshals result to the app's writer as JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var packErr *errors.PackError
	if errors.As(err, &packErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", packErr.Code, packErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// requireArg returns the first positional argument, or an EMPTY_INPUT exit.
func requireArg(c *cli.Context, name string) (string, error) {
	v := strings.TrimSpace(c.Args().First())
	if v == "" {
		return "", outputError(errors.NewEmptyInput(name))
	}
	return v, nil
}

// promptConfirmer asks on w whether to merge a duplicate and reads the answer
// from r. Anything but y/yes declines, including EOF.
func promptConfirmer(r io.Reader, w io.Writer) ops.Confirmer {
	br := bufio.NewReader(r)
	return func(existing, candidate checklist.Item) bool {
		fmt.Fprintf(w, "%q is already in %s (x%d). Merge into it? [y/N] ",
			existing.Label, existing.Bag.DisplayName(), existing.Count())
		line, _ := br.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

// parseList splits a comma-separated string, dropping blanks.
func parseList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
