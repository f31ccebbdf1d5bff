package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/leafnote/internal"
	pkgconfig "github.com/starford/leafnote/pkg/config"
)

var version = "dev"

// loadConfig reads the --config file. A missing file means defaults.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// openApp loads config and starts the controller, logging to logOut.
func openApp(ctx context.Context, cmd *cli.Command, logOut io.Writer) (*internal.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	app, err := internal.New(ctx,
		internal.WithConfig(cfg),
		internal.WithLogOutput(logOut),
		internal.WithVersion(version),
	)
	if err != nil {
		return nil, fmt.Errorf("app init error: %w", err)
	}
	return app, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	app, err := openApp(ctx, cmd, os.Stdout)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Serve(ctx); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	app, err := openApp(ctx, cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.ServeMCP(ctx)
}

func runTUI(ctx context.Context, cmd *cli.Command) error {
	app, err := openApp(ctx, cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.RunTUI(ctx)
}

func newRootCmd(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "leafnote",
		Usage:   "Pages of checkbox notes, kept locally",
		Version: version,
		Writer:  stdout,
		Action:  runTUI,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("LEAFNOTE_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "tui",
				Usage:  "Open the terminal UI (default)",
				Action: runTUI,
			},
			{
				Name:   "serve",
				Usage:  "Serve the REST API and change stream over HTTP",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: runMCP,
			},
			pageCommand(),
			noteCommand(),
			themeCommand(),
			resetCommand(),
			importCommand(),
			exportCommand(),
		},
	}
}

func main() {
	if err := newRootCmd(os.Stdout).Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
