package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mchmarny/riskpulse/pkg/engine"
	"github.com/mchmarny/riskpulse/pkg/net"
	"github.com/mchmarny/riskpulse/pkg/table"
	urfave "github.com/urfave/cli/v3"
)

const featuresFileName = "features.yaml"

var (
	inputFlag = &urfave.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Input file, - for stdin",
	}

	outFlag = &urfave.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Usage:   "Output file (default: stdout)",
	}

	setFlag = &urfave.StringSliceFlag{
		Name:  "set",
		Usage: "Feature override as name=value (repeatable)",
	}

	horizonFlag = &urfave.IntFlag{
		Name:  "horizon",
		Usage: "Horizon in months (default: config horizon_months)",
	}

	batchTierFlag = &urfave.BoolFlag{
		Name:  "batch",
		Usage: "Classify a batch risk factor (0-1) instead of a risk percentage",
	}

	templateFlag = &urfave.BoolFlag{
		Name:  "template",
		Usage: "Write an empty CSV with the required columns",
	}

	scoreCmd = &urfave.Command{
		Name:   "score",
		Usage:  "Score one subject: risk at horizon, survival curve and follow-up plan",
		Action: cmdScore,
		Flags: []urfave.Flag{
			inputFlag,
			setFlag,
			horizonFlag,
		},
	}

	explainCmd = &urfave.Command{
		Name:   "explain",
		Usage:  "Show each feature's contribution to the 24-month risk",
		Action: cmdExplain,
		Flags: []urfave.Flag{
			inputFlag,
			setFlag,
		},
	}

	tierCmd = &urfave.Command{
		Name:      "tier",
		Usage:     "Classify a risk value",
		ArgsUsage: "<risk>",
		Action:    cmdTier,
		Flags: []urfave.Flag{
			batchTierFlag,
		},
	}

	checkCmd = &urfave.Command{
		Name:   "check",
		Usage:  "Score every row of a feature table CSV at 24 months",
		Action: cmdCheck,
		Flags: []urfave.Flag{
			inputFlag,
			outFlag,
			templateFlag,
		},
	}

	pullFlag = &urfave.StringFlag{
		Name:  "pull",
		Usage: "Download a shared feature table from this URL and validate it",
	}

	featuresCmd = &urfave.Command{
		Name:   "features",
		Usage:  "Print the active feature table or pull a shared one",
		Action: cmdFeatures,
		Flags: []urfave.Flag{
			pullFlag,
			outFlag,
		},
	}
)

func subjectVector(cmd *urfave.Command) (engine.FeatureVector, error) {
	var v engine.FeatureVector
	if p := cmd.String(inputFlag.Name); p != "" {
		var err error
		if v, err = readVectorFile(p); err != nil {
			return nil, err
		}
	}
	v, err := applyOverrides(v, cmd.StringSlice(setFlag.Name))
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("no features given, use --%s or --%s", inputFlag.Name, setFlag.Name)
	}
	return v, nil
}

func cmdScore(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	v, err := subjectVector(cmd)
	if err != nil {
		return err
	}

	horizon := cmd.Int(horizonFlag.Name)
	if horizon == 0 {
		horizon = cfg.Config.HorizonMonths
	}

	res, err := scoreSubject(cfg.Engine, v, horizon)
	if err != nil {
		return err
	}
	return output(cmd, res)
}

func cmdExplain(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	v, err := subjectVector(cmd)
	if err != nil {
		return err
	}
	res, err := explainSubject(cfg.Engine, v)
	if err != nil {
		return err
	}
	return output(cmd, res)
}

func cmdTier(_ context.Context, cmd *urfave.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("expected one risk value, got %d", cmd.NArg())
	}
	risk, err := strconv.ParseFloat(cmd.Args().First(), 64)
	if err != nil {
		return fmt.Errorf("invalid risk value %q: %w", cmd.Args().First(), err)
	}

	tier := engine.TierFor(risk)
	if cmd.Bool(batchTierFlag.Name) {
		tier = engine.BatchTierFor(risk)
	}
	return output(cmd, map[string]any{"risk": risk, "tier": tier})
}

func cmdCheck(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	w, closeOut, err := createOutput(cmd, cmd.String(outFlag.Name))
	if err != nil {
		return err
	}
	defer closeOut()

	if cmd.Bool(templateFlag.Name) {
		return table.Write(w, table.Template(cfg.Engine.Table()))
	}

	in, err := readTable(cmd.String(inputFlag.Name))
	if err != nil {
		return err
	}
	out, err := checkTable(cfg.Engine, in)
	if err != nil {
		return err
	}
	return table.Write(w, out)
}

func cmdFeatures(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	url := cmd.String(pullFlag.Name)
	if url == "" {
		return output(cmd, cfg.Engine.Table())
	}

	path := cmd.String(outFlag.Name)
	if path == "" {
		path = filepath.Join(cfg.HomeDir, featuresFileName)
	}
	if err := net.Download(ctx, url, os.Getenv(featuresTokenEnvVar), path); err != nil {
		return fmt.Errorf("pulling feature table: %w", err)
	}
	t, err := engine.LoadFeatureTableFile(path)
	if err != nil {
		os.Remove(path)
		return err
	}

	slog.Info("feature table saved", "path", path, "version", t.Version, "features", len(t.Features))
	return nil
}
