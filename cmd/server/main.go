package main

import (
	"auticonnect/internal/app"
	"auticonnect/internal/config"
	"auticonnect/internal/logger"
	"auticonnect/internal/prompt"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

func main() {
	cliApp := &cli.App{
		Name:    "auticonnect",
		Usage:   "Mediation decision engine for AutiConnect group and individual conversations",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (TOML)",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			templatesCommand(),
		},
		Action: serve,
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the HTTP and WebSocket server",
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	log.Info("engine ready",
		"alert_threshold", cfg.Engine.AlertThreshold,
		"group_cooldown", cfg.Engine.GroupCooldown().String(),
		"templates", cfg.Engine.TemplatesPath,
	)

	if err := a.Serve(ctx); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}

func templatesCommand() *cli.Command {
	return &cli.Command{
		Name:  "templates",
		Usage: "Write the built-in prompt templates to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Destination `FILE` (.json, .yaml or .yml); defaults to the configured templates path",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing file",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.String("out")
			if path == "" {
				cfg, err := config.Load(c.String("config"))
				if err != nil {
					return err
				}
				path = cfg.Engine.TemplatesPath
			}

			if _, err := os.Stat(path); err == nil && !c.Bool("force") {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := prompt.Save(path, prompt.DefaultTemplates()); err != nil {
				return err
			}
			fmt.Printf("Wrote default prompt templates to %s\n", path)
			return nil
		},
	}
}
