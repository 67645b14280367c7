package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mchmarny/scoring/pkg/config"
	"github.com/mchmarny/scoring/pkg/logging"
	urfave "github.com/urfave/cli/v3"
)

const (
	appName      = "scoring"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"

	envPrefix = "SCORING_"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	debugFlag = &urfave.BoolFlag{
		Name:    "debug",
		Usage:   "Prints verbose logs (optional, default: false)",
		Sources: urfave.EnvVars(envPrefix + "DEBUG"),
	}

	configFileFlag = &urfave.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the YAML configuration file (optional)",
		Sources: urfave.EnvVars(envPrefix + "CONFIG"),
	}

	apiURLFlag = &urfave.StringFlag{
		Name:    "api-url",
		Usage:   "Base URL of the scoring service",
		Sources: urfave.EnvVars(envPrefix + "API_URL"),
	}

	apiTimeoutFlag = &urfave.DurationFlag{
		Name:    "api-timeout",
		Usage:   "Timeout of a single scoring service call",
		Sources: urfave.EnvVars(envPrefix + "API_TIMEOUT"),
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(false)

	if err := config.LoadEnv(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Path  string
	Debug bool
	*config.Config
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Credit scoring web front end",
		Metadata:              map[string]any{},
		Flags: []urfave.Flag{
			debugFlag,
			configFileFlag,
			apiURLFlag,
			apiTimeoutFlag,
		},
		Commands: []*urfave.Command{
			serverCmd,
			configCmd,
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			debug := cmd.Bool(debugFlag.Name)
			if debug {
				initLogging(true)
			}

			path := cmd.String(configFileFlag.Name)
			cfg, err := config.Load(path)
			if err != nil {
				return ctx, fmt.Errorf("loading configuration: %w", err)
			}

			if cmd.IsSet(apiURLFlag.Name) {
				cfg.API.URL = cmd.String(apiURLFlag.Name)
			}
			if cmd.IsSet(apiTimeoutFlag.Name) {
				cfg.API.Timeout = cmd.Duration(apiTimeoutFlag.Name)
			}
			if err := cfg.Validate(); err != nil {
				return ctx, err
			}

			slog.Debug("configuration loaded", "path", path, "api", cfg.API.URL)

			cmd.Metadata[appConfigKey] = &appConfig{
				Path:   path,
				Debug:  debug,
				Config: cfg,
			}
			return ctx, nil
		},
	}
}

func initLogging(debug bool) {
	level := "info"
	if debug {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)
}

func encode(w io.Writer, format string, cfg *config.Config) error {
	if format == formatYAML || format == "yml" {
		b, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(cfg)
}
