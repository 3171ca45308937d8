package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mchmarny/riskpulse/pkg/config"
	"github.com/mchmarny/riskpulse/pkg/data"
	"github.com/mchmarny/riskpulse/pkg/engine"
	"github.com/mchmarny/riskpulse/pkg/logging"
	"github.com/mchmarny/riskpulse/pkg/net"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appConfigKey = "app-config"
	envFileName  = ".env"

	// featuresTokenEnvVar holds a bearer token for private feature table URLs.
	featuresTokenEnvVar = "RISKPULSE_FEATURES_TOKEN"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	configFlag = &urfave.StringFlag{
		Name:  "config",
		Usage: "Path to the config file (default: $HOME/.riskpulse/config.yaml)",
	}

	featuresFlag = &urfave.StringFlag{
		Name:  "features",
		Usage: "Path to an alternative feature table (YAML)",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// appConfig is the state resolved once per invocation and shared by all
// commands.
type appConfig struct {
	Config  *config.Config
	HomeDir string
	Debug   bool
	Format  string
	Engine  *engine.Engine
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  "riskpulse",
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Cardio-renal risk scoring, survival curves and cohort analytics",
		Metadata:              map[string]any{},
		Flags: []urfave.Flag{
			debugFlag,
			configFlag,
			featuresFlag,
			formatFlag,
		},
		Commands: []*urfave.Command{
			scoreCmd,
			explainCmd,
			tierCmd,
			checkCmd,
			batchCmd,
			roiCmd,
			cohortCmd,
			sampleCmd,
			actionCmd,
			authCmd,
			featuresCmd,
			serverCmd,
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			cfg, err := loadAppConfig(ctx, cmd)
			if err != nil {
				return ctx, err
			}
			cmd.Root().Metadata[appConfigKey] = cfg
			return ctx, nil
		},
	}
}

// loadAppConfig resolves config file, .env, environment and flags, in
// increasing order of precedence.
func loadAppConfig(ctx context.Context, cmd *urfave.Command) (*appConfig, error) {
	home := getHomeDir()

	var (
		c   *config.Config
		err error
	)
	if p := cmd.String(configFlag.Name); p != "" {
		c, err = config.ReadFile(p)
	} else {
		c, err = config.ReadOrCreate(home)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := c.LoadEnv(envFileName, filepath.Join(home, envFileName)); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if cmd.Bool(debugFlag.Name) {
		c.Debug = true
	}
	if f := cmd.String(featuresFlag.Name); f != "" {
		c.FeaturesFile = f
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(home, data.DataFileName)
	}

	initLogging(c.Debug, c.LogLevel)

	table, err := loadFeatureTable(ctx, c.FeaturesFile)
	if err != nil {
		return nil, err
	}

	format := formatJSON
	if f := cmd.String(formatFlag.Name); f == formatYAML || f == "yml" {
		format = formatYAML
	}

	return &appConfig{
		Config:  c,
		HomeDir: home,
		Debug:   c.Debug,
		Format:  format,
		Engine:  engine.New(table),
	}, nil
}

// loadFeatureTable reads the table at src, a local path or http(s) URL. An
// empty src selects the embedded default.
func loadFeatureTable(ctx context.Context, src string) (*engine.FeatureTable, error) {
	if src == "" {
		return engine.DefaultFeatureTable(), nil
	}
	if !net.IsURL(src) {
		t, err := engine.LoadFeatureTableFile(src)
		if err != nil {
			return nil, err
		}
		slog.Debug("feature table loaded", "path", src, "version", t.Version)
		return t, nil
	}

	b, err := net.Fetch(ctx, src, os.Getenv(featuresTokenEnvVar))
	if err != nil {
		return nil, fmt.Errorf("fetching feature table: %w", err)
	}
	t, err := engine.LoadFeatureTable(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("feature table %s: %w", src, err)
	}
	slog.Debug("feature table fetched", "url", src, "version", t.Version)
	return t, nil
}

func initLogging(debug bool, level string) {
	logging.SetDefaultCLILogger(logging.LevelFor(debug, level))
}

func getHomeDir() string {
	dir, created, err := config.GetOrCreateHomeDir(config.DirName)
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	if created {
		slog.Debug("created home dir", "path", dir)
	}
	return dir
}

func openStore(ctx context.Context, cfg *appConfig) (data.Store, error) {
	s, err := data.Open(ctx, cfg.Config.DBPath, cfg.Config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("opening action store: %w", err)
	}
	return s, nil
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

// output writes v to the command's writer in the configured format.
func output(cmd *urfave.Command, v any) error {
	return encode(cmd.Root().Writer, getConfig(cmd).Format, v)
}

// createOutput returns the file at path, or the command writer when path is
// empty or "-".
func createOutput(cmd *urfave.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.Root().Writer, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, f.Close, nil
}
