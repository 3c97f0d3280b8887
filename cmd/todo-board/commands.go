// ABOUTME: Admin subcommands: interactive config init, user creation and health checks
// ABOUTME: Each command loads the same config file as serve

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/2389/todo-board/internal/auth"
	"github.com/2389/todo-board/internal/config"
	"github.com/2389/todo-board/internal/server"
	"github.com/2389/todo-board/internal/store"
)

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check a running server",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "ready", Usage: "also require the store to be reachable"},
		},
		Action: runHealth,
	}
}

func runHealth(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	path := "/health"
	if c.Bool("ready") {
		path = "/health/ready"
	}

	url := fmt.Sprintf("http://%s%s", cfg.Server.HTTPAddr, path)
	req, err := http.NewRequestWithContext(c.Context, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	fmt.Fprintln(c.App.Writer, strings.TrimSpace(string(body)))
	return nil
}

func userAddCommand() *cli.Command {
	return &cli.Command{
		Name:      "useradd",
		Usage:     "Create a user and print its session token",
		ArgsUsage: "USERNAME",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "password",
				Usage:   "password for the new user (read from stdin when omitted)",
				EnvVars: []string{"TODO_BOARD_PASSWORD"},
			},
		},
		Action: runUserAdd,
	}
}

func runUserAdd(c *cli.Context) error {
	username := strings.TrimSpace(c.Args().First())
	if username == "" {
		return errors.New("username argument is required")
	}

	password := c.String("password")
	if password == "" {
		fmt.Fprint(c.App.Writer, "Password: ")
		line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Database.Driver == config.DriverMemory {
		return errors.New("useradd needs a persistent database driver")
	}

	s, err := server.OpenStore(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	user, err := auth.NewCredentials(s).CreateUser(c.Context, username, password)
	switch {
	case errors.Is(err, store.ErrUsernameExists):
		return fmt.Errorf("user %q already exists", username)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return errors.New("password cannot be empty")
	case err != nil:
		return err
	}

	green := color.New(color.FgGreen)
	green.Fprintf(c.App.Writer, "  ✓ Created user: %s (id %d)\n", user.Username, user.ID)
	fmt.Fprintf(c.App.Writer, "  Token: %s\n", user.Token)
	return nil
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Create a new config file interactively",
		Action: runInit,
	}
}

func runInit(c *cli.Context) error {
	reader := bufio.NewReader(c.App.Reader)
	out := c.App.Writer

	fmt.Fprintln(out, "todo-board configuration setup")
	fmt.Fprintln(out, "==============================")
	fmt.Fprintln(out)

	outputFile := prompt(reader, out, "Config file path", c.String("config"))

	if _, err := os.Stat(outputFile); err == nil {
		if !yes(prompt(reader, out, "File exists. Overwrite?", "no")) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	cfg, err := config.Default()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\n--- Server Configuration ---")
	cfg.Server.HTTPAddr = prompt(reader, out, "HTTP address", cfg.Server.HTTPAddr)

	fmt.Fprintln(out, "\n--- Database Configuration ---")
	cfg.Database.Driver = prompt(reader, out, "Driver (sqlite/sqlite3/pgx/memory)", cfg.Database.Driver)
	if cfg.Database.Driver != config.DriverMemory {
		cfg.Database.DSN = prompt(reader, out, "DSN (file path or postgres URL)", cfg.Database.DSN)
	}

	fmt.Fprintln(out, "\n--- Tailscale Configuration ---")
	cfg.Tailscale.Enabled = yes(prompt(reader, out, "Enable Tailscale?", "no"))
	if cfg.Tailscale.Enabled {
		cfg.Tailscale.Hostname = prompt(reader, out, "Tailscale hostname", "todo-board")
		cfg.Tailscale.AuthKey = prompt(reader, out, "Tailscale auth key (leave empty to use TS_AUTHKEY)", "")
		cfg.Tailscale.Ephemeral = yes(prompt(reader, out, "Ephemeral node?", "no"))
		cfg.Tailscale.Funnel = yes(prompt(reader, out, "Enable Funnel (public HTTPS)?", "no"))
		if !cfg.Tailscale.Funnel {
			cfg.Tailscale.HTTPS = yes(prompt(reader, out, "Serve HTTPS with tailnet certs?", "no"))
		}
		cfg.Web.SecureCookies = cfg.Tailscale.Funnel || cfg.Tailscale.HTTPS
	}

	fmt.Fprintln(out, "\n--- Logging Configuration ---")
	cfg.Logging.Level = prompt(reader, out, "Log level (debug/info/warn/error)", cfg.Logging.Level)
	cfg.Logging.Format = prompt(reader, out, "Log format (text/json)", cfg.Logging.Format)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid answers: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	content := "# todo-board configuration\n# Generated by todo-board init\n\n" + string(data)

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", outputFile)
	fmt.Fprintln(out, "\nTo start the server:")
	fmt.Fprintf(out, "  todo-board --config %s serve\n", outputFile)
	return nil
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

func yes(answer string) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}
