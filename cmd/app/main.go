package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/filecat/internal"
	pkgconfig "github.com/starford/filecat/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

func scan(ctx context.Context, cmd *cli.Command) error {
	root := cmd.Args().First()
	if root == "" {
		return fmt.Errorf("scan: directory argument is required")
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunScan(ctx, root, opts...)
}

func search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("search: query argument is required")
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunSearch(ctx, query, int(cmd.Int("limit")), opts...)
}

func stats(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunStats(ctx, opts...)
}

func cleanup(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.RunCleanup(ctx, int(cmd.Int("keep")), opts...)
}

func main() {
	cmd := &cli.Command{
		Name:   "filecat",
		Usage:  "Catalog files under a directory, extract their text and search them",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve catalog tools over MCP on stdio",
				Action: mcp,
			},
			{
				Name:      "scan",
				Usage:     "Walk a directory and ingest it as a new scan",
				ArgsUsage: "<directory>",
				Action:    scan,
			},
			{
				Name:      "search",
				Usage:     "Search the catalog",
				ArgsUsage: "<query>",
				Action:    search,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum results", Value: 20},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print catalog diagnostics",
				Action: stats,
			},
			{
				Name:   "cleanup",
				Usage:  "Keep only the most recent scans",
				Action: cleanup,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "keep", Usage: "Number of scans to keep", Required: true},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
