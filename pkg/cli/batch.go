package cli

import (
	"context"
	"strconv"

	"github.com/mchmarny/riskpulse/pkg/engine"
	"github.com/mchmarny/riskpulse/pkg/table"
	"github.com/mchmarny/riskpulse/pkg/whatif"
	urfave "github.com/urfave/cli/v3"
)

var (
	seedFlag = &urfave.IntFlag{
		Name:  "seed",
		Usage: "Random seed for window jitter and synthetic data (default: config seed)",
		Value: -1,
	}

	csvFlag = &urfave.BoolFlag{
		Name:  "csv",
		Usage: "Write a CSV work list instead of the full scored rows",
	}

	coverageFlag = &urfave.FloatFlag{
		Name:  "coverage",
		Usage: "Share of the cohort treated, highest risk first (0-1)",
		Value: whatif.DefaultAssumptions().Coverage,
	}

	efficacyFlag = &urfave.FloatFlag{
		Name:  "efficacy",
		Usage: "Share of events the intervention avoids (0-1)",
		Value: whatif.DefaultAssumptions().Efficacy,
	}

	costEventFlag = &urfave.FloatFlag{
		Name:  "cost-event",
		Usage: "Cost of one adverse event",
		Value: whatif.DefaultAssumptions().CostPerEvent,
	}

	costPatientFlag = &urfave.FloatFlag{
		Name:  "cost-patient",
		Usage: "Program cost per treated patient",
		Value: whatif.DefaultAssumptions().CostPerPatient,
	}

	cohortSizeFlag = &urfave.IntFlag{
		Name:  "cohort-size",
		Usage: "Cohort size, when no batch CSV is given",
	}

	baselineRateFlag = &urfave.FloatFlag{
		Name:  "baseline-rate",
		Usage: "Baseline event rate (0-1), when no batch CSV is given",
	}

	batchCmd = &urfave.Command{
		Name:   "batch",
		Usage:  "Score a clinical operations CSV (creatinine, hba1c, sbp, polypharmacy_n, admissions_6m)",
		Action: cmdBatch,
		Flags: []urfave.Flag{
			inputFlag,
			outFlag,
			seedFlag,
			csvFlag,
		},
	}

	roiCmd = &urfave.Command{
		Name:   "roi",
		Usage:  "Estimate avoided events and return of an intervention program",
		Action: cmdROI,
		Flags: []urfave.Flag{
			inputFlag,
			seedFlag,
			coverageFlag,
			efficacyFlag,
			costEventFlag,
			costPatientFlag,
			cohortSizeFlag,
			baselineRateFlag,
		},
	}
)

func seed(cmd *urfave.Command) uint64 {
	if s := cmd.Int(seedFlag.Name); s >= 0 {
		return uint64(s)
	}
	return getConfig(cmd).Config.Seed
}

func cmdBatch(ctx context.Context, cmd *urfave.Command) error {
	in, err := readTable(cmd.String(inputFlag.Name))
	if err != nil {
		return err
	}
	rows, err := scoreBatchTable(ctx, in, seed(cmd))
	if err != nil {
		return err
	}

	w, closeOut, err := createOutput(cmd, cmd.String(outFlag.Name))
	if err != nil {
		return err
	}
	defer closeOut()

	if cmd.Bool(csvFlag.Name) {
		return table.Write(w, workList(rows))
	}
	return encode(w, getConfig(cmd).Format, rows)
}

// workList flattens scored rows for export: the original columns of the first
// row followed by the scores.
func workList(rows []*engine.ScoredRow) *table.Table {
	t := &table.Table{}
	if len(rows) == 0 {
		return t
	}

	var cols []string
	for _, c := range []string{"patient_id", "service", "servicio"} {
		if _, ok := rows[0].Record[c]; ok {
			cols = append(cols, c)
		}
	}
	t.Columns = append(cols, "risk_factor", "tier", "t_start_days", "t_end_days", "top_feature")

	for _, r := range rows {
		var row []string
		for _, c := range cols {
			l, _ := r.Record.Label(c)
			row = append(row, l)
		}
		row = append(row,
			strconv.FormatFloat(r.RiskFactor, 'f', 3, 64),
			string(r.Tier),
			strconv.Itoa(r.TStartDays),
			strconv.Itoa(r.TEndDays),
			r.TopFeatures[0],
		)
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cmdROI(ctx context.Context, cmd *urfave.Command) error {
	a := whatif.Assumptions{
		Coverage:       cmd.Float(coverageFlag.Name),
		Efficacy:       cmd.Float(efficacyFlag.Name),
		CostPerEvent:   cmd.Float(costEventFlag.Name),
		CostPerPatient: cmd.Float(costPatientFlag.Name),
	}

	if cmd.String(inputFlag.Name) == "" {
		res, err := runROI(ROIRequest{
			CohortSize:     cmd.Int(cohortSizeFlag.Name),
			BaselineRate:   cmd.Float(baselineRateFlag.Name),
			Coverage:       a.Coverage,
			Efficacy:       a.Efficacy,
			CostPerEvent:   a.CostPerEvent,
			CostPerPatient: a.CostPerPatient,
		})
		if err != nil {
			return err
		}
		return output(cmd, res)
	}

	in, err := readTable(cmd.String(inputFlag.Name))
	if err != nil {
		return err
	}
	rows, err := scoreBatchTable(ctx, in, seed(cmd))
	if err != nil {
		return err
	}
	s, err := whatif.RunScenario(rows, a)
	if err != nil {
		return err
	}
	return output(cmd, s)
}
