package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"creativehub/internal/app/bootstrap"
	"creativehub/internal/platform/config"

	cli "github.com/urfave/cli/v3"
)

// Worker process entrypoint.
// Data flow:
// 1) Load env files and config.
// 2) Subscribe to workflow events on Kafka.
// 3) Deliver each event once to email and telegram until SIGINT/SIGTERM.
func main() {
	cmd := &cli.Command{
		Name:  "creativehub-worker",
		Usage: "Deliver creative approval notifications from the event bus",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Env files to load before reading the environment",
				Value: config.DefaultEnvFiles,
			},
			&cli.StringFlag{
				Name:    "consumer-group",
				Usage:   "Kafka consumer group for notification delivery",
				Sources: cli.EnvVars("NOTIFY_CONSUMER_GROUP"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := config.LoadEnv(cmd.StringSlice("env-file")); err != nil {
				return fmt.Errorf("load env files: %w", err)
			}
			cfg, err := config.Parse()
			if err != nil {
				return err
			}
			if group := cmd.String("consumer-group"); group != "" {
				cfg.ConsumerGroup = group
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap.BuildWorker(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Run(ctx)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
