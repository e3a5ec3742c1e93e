package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"creativehub/internal/app/bootstrap"
	"creativehub/internal/platform/config"
	"creativehub/internal/platform/db"

	cli "github.com/urfave/cli/v3"
)

// API process entrypoint.
// Data flow:
// 1) Load env files and config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Serve HTTP until SIGINT/SIGTERM, then drain notifications.
func main() {
	cmd := &cli.Command{
		Name:  "creativehub-api",
		Usage: "Serve the creative approval workflow HTTP API",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Env files to load before reading the environment",
				Value: config.DefaultEnvFiles,
			},
			&cli.StringFlag{
				Name:    "http-port",
				Usage:   "Port to listen on",
				Sources: cli.EnvVars("HTTP_PORT"),
			},
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "Apply database migrations before serving",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply pending database migrations and exit",
				Action: runMigrate,
			},
		},
		Action: runAPI,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cli.Command) (config.Config, error) {
	if _, err := config.LoadEnv(cmd.StringSlice("env-file")); err != nil {
		return config.Config{}, fmt.Errorf("load env files: %w", err)
	}
	cfg, err := config.Parse()
	if err != nil {
		return config.Config{}, err
	}
	if port := cmd.String("http-port"); port != "" {
		cfg.HTTPPort = port
	}
	if cmd.Bool("migrate") {
		cfg.MigrateOnStart = true
	}
	return cfg, nil
}

func runAPI(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildAPI(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Run(ctx)
}

func runMigrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.Root())
	if err != nil {
		return err
	}
	if cfg.StoreDriver != config.StorePostgres {
		return fmt.Errorf("migrate needs STORE_DRIVER=%s", config.StorePostgres)
	}
	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer pg.Close()

	applied, err := pg.Migrate(ctx, slog.Default())
	if err != nil {
		return err
	}
	fmt.Printf("applied %d migrations\n", applied)
	return nil
}
