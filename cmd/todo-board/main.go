// ABOUTME: Entry point for the todo-board server and its admin commands
// ABOUTME: Parses the command line with urfave/cli and runs serve, init, useradd or health

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/2389/todo-board/internal/config"
	"github.com/2389/todo-board/internal/server"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _            _            _                         _
| |_ ___   __| | ___      | |__   ___   __ _ _ __ __| |
| __/ _ \ / _' |/ _ \ ____| '_ \ / _ \ / _' | '__/ _' |
| || (_) | (_| | (_) |____| |_) | (_) | (_| | | | (_| |
 \__\___/ \__,_|\___/     |_.__/ \___/ \__,_|_|  \__,_|
`

// defaultConfigPath returns XDG_CONFIG_HOME/todo-board/config.yaml or
// ~/.config/todo-board/config.yaml.
func defaultConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "todo-board", "config.yaml")
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "todo-board",
		Usage:   "Multi-user todo board with live updates",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML or TOML config file",
				EnvVars: []string{"TODO_BOARD_CONFIG"},
				Value:   defaultConfigPath(),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			initCommand(),
			userAddCommand(),
			healthCommand(),
		},
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the todo board server",
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	configPath := c.String("config")

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Driver)
	if !cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	}

	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		} else if cfg.Tailscale.HTTPS {
			yellow.Print(" [https]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	}

	if cfg.Metrics.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:   %s\n", cfg.Metrics.Path)
	}

	fmt.Println()

	logger.Info("starting todo-board",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"db_driver", cfg.Database.Driver,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(c.Context)
}
