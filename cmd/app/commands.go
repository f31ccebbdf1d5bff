package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/leafnote/internal"
	"github.com/starford/leafnote/internal/apperr"
	"github.com/starford/leafnote/internal/markdown"
	"github.com/starford/leafnote/internal/persist"
)

// withApp runs fn against a started app. When save is set the library and
// theme are written afterwards, even if fn failed partway.
func withApp(save bool, fn func(ctx context.Context, cmd *cli.Command, app *internal.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		app, err := openApp(ctx, cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer app.Close()

		runErr := fn(ctx, cmd, app)
		if save {
			if err := app.Shutdown(ctx); err != nil && runErr == nil {
				runErr = fmt.Errorf("save: %w", err)
			}
		}
		return runErr
	}
}

func printf(cmd *cli.Command, format string, args ...any) {
	fmt.Fprintf(cmd.Root().Writer, format, args...)
}

func requireArgs(cmd *cli.Command, n int, usage string) error {
	if cmd.Args().Len() < n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func pageCommand() *cli.Command {
	return &cli.Command{
		Name:  "page",
		Usage: "Manage pages",
		Commands: []*cli.Command{
			{
				Name:  "ls",
				Usage: "List pages; * marks the active one",
				Action: withApp(false, func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					for _, title := range app.Controller.Titles() {
						mark := " "
						if app.Controller.IsCurrentPage(title) {
							mark = "*"
						}
						printf(cmd, "%s %s\n", mark, title)
					}
					return nil
				}),
			},
			{
				Name:      "add",
				Usage:     "Create an empty page",
				ArgsUsage: "<title>",
				Action: withApp(true, func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					if err := requireArgs(cmd, 1, "page add <title>"); err != nil {
						return err
					}
					return app.Controller.AddPage(cmd.Args().First())
				}),
			},
			{
				Name:      "rm",
				Usage:     "Delete a page and its notes",
				ArgsUsage: "<title>",
				Action: withApp(true, func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					if err := requireArgs(cmd, 1, "page rm <title>"); err != nil {
						return err
					}
					return app.Controller.DeletePage(cmd.Args().First())
				}),
			},
			{
				Name:      "select",
				Usage:     "Make a page active",
				ArgsUsage: "<title>",
				Action: withApp(true, func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					if err := requireArgs(cmd, 1, "page select <title>"); err != nil {
						return err
					}
					title := cmd.Args().First()
					err := app.Controller.SelectPage(title)
					if errors.Is(err, apperr.ErrInvalidPersistedData) {
						fmt.Fprintf(os.Stderr, "warning: page %q was unreadable and is now empty\n", title)
						return nil
					}
					return err
				}),
			},
		},
	}
}

func noteCommand() *cli.Command {
	return &cli.Command{
		Name:  "note",
		Usage: "Manage notes on the active page",
		Commands: []*cli.Command{
			{
				Name:  "ls",
				Usage: "List notes with their indices",
				Action: withApp(false, func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					if app.Controller.NoPageSelected() {
						return fmt.Errorf("no page selected")
					}
					for i, n := range app.Controller.Notes() {
						box := " "
						if n.Checked {
							box = "x"
						}
						printf(cmd, "%d [%s] %s\n", i, box, n.Text)
					}
					return nil
				}),
			},
			{
				Name:      "add",
				Usage:     "Append a note",
				ArgsUsage: "<text...>",
				Action: withApp(true, func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					return app.Controller.AddNote(strings.Join(cmd.Args().Slice(), " "))
				}),
			},
			{
				Name:      "toggle",
				Usage:     "Flip a note's checkbox",
				ArgsUsage: "<index>",
				Action: withApp(true, func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					if err := requireArgs(cmd, 1, "note toggle <index>"); err != nil {
						return err
					}
					index, err := strconv.Atoi(cmd.Args().First())
					if err != nil {
						return fmt.Errorf("index must be an integer: %w", err)
					}
					return app.Controller.ToggleNote(index)
				}),
			},
			{
				Name:      "rm",
				Usage:     "Delete notes",
				ArgsUsage: "<index...>",
				Action: withApp(true, func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					if err := requireArgs(cmd, 1, "note rm <index...>"); err != nil {
						return err
					}
					indices := make([]int, 0, cmd.Args().Len())
					for _, a := range cmd.Args().Slice() {
						i, err := strconv.Atoi(a)
						if err != nil {
							return fmt.Errorf("index must be an integer: %w", err)
						}
						indices = append(indices, i)
					}
					return app.Controller.DeleteNotes(indices...)
				}),
			},
		},
	}
}

func themeCommand() *cli.Command {
	return &cli.Command{
		Name:  "theme",
		Usage: "Show or switch the theme",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print dark or light",
				Action: withApp(false, func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					printf(cmd, "%s\n", app.Controller.Theme().Name())
					return nil
				}),
			},
			{
				Name:  "toggle",
				Usage: "Switch between dark and light",
				Action: withApp(true, func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					printf(cmd, "%s\n", app.Controller.ToggleTheme().Name())
					return nil
				}),
			},
		},
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Delete all pages and notes",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "Confirm deleting everything"},
		},
		Action: withApp(true, func(_ context.Context, cmd *cli.Command, app *internal.App) error {
			if !cmd.Bool("yes") {
				return fmt.Errorf("refusing to reset without --yes")
			}
			app.Controller.ResetAll()
			return nil
		}),
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Create a page from a file",
		Commands: []*cli.Command{
			{
				Name:      "legacy",
				Usage:     "Import a single-page entries.json",
				ArgsUsage: "<file> <title>",
				Action: withApp(true, func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					if err := requireArgs(cmd, 2, "import legacy <file> <title>"); err != nil {
						return err
					}
					page, err := persist.LoadLegacy(cmd.Args().Get(0))
					if err != nil {
						return err
					}
					title := cmd.Args().Get(1)
					if err := app.Controller.ImportPage(title, page); err != nil {
						return err
					}
					printf(cmd, "imported %d notes into %s\n", len(page.Notes), title)
					return nil
				}),
			},
			{
				Name:      "markdown",
				Usage:     "Import a Markdown task list; the title defaults to the document's",
				ArgsUsage: "<file> [title]",
				Action: withApp(true, func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					if err := requireArgs(cmd, 1, "import markdown <file> [title]"); err != nil {
						return err
					}
					data, err := os.ReadFile(cmd.Args().Get(0))
					if err != nil {
						return err
					}
					res, err := markdown.Parse(data)
					if err != nil {
						return err
					}
					title := res.Title
					if cmd.Args().Len() > 1 {
						title = cmd.Args().Get(1)
					}
					if err := app.Controller.ImportPage(title, res.Page); err != nil {
						return err
					}
					printf(cmd, "imported %d notes into %s\n", len(res.Page.Notes), title)
					return nil
				}),
			},
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write a page to stdout",
		Commands: []*cli.Command{
			{
				Name:      "markdown",
				Usage:     "Export a page as a Markdown task list (active page by default)",
				ArgsUsage: "[title]",
				Action: withApp(false, func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					title := app.Controller.CurrentPage()
					if cmd.Args().Len() > 0 {
						title = cmd.Args().First()
					}
					if title == "" {
						return fmt.Errorf("no page selected")
					}
					notes, err := app.Controller.PageNotes(title)
					if err != nil {
						return err
					}
					_, err = cmd.Root().Writer.Write(markdown.Export(title, notes))
					return err
				}),
			},
		},
	}
}
