package cli

import (
	"context"
	"time"

	"github.com/mchmarny/riskpulse/pkg/cohort"
	"github.com/mchmarny/riskpulse/pkg/sample"
	urfave "github.com/urfave/cli/v3"
)

var (
	departmentFlag = &urfave.StringFlag{
		Name:  "department",
		Usage: "Only include subjects of this department",
	}

	sexFlag = &urfave.StringFlag{
		Name:  "sex",
		Usage: "Only include subjects of this sex (F or M)",
	}

	ageMinFlag = &urfave.FloatFlag{
		Name:  "age-min",
		Usage: "Minimum age (inclusive)",
	}

	ageMaxFlag = &urfave.FloatFlag{
		Name:  "age-max",
		Usage: "Maximum age (inclusive)",
	}

	topFlag = &urfave.IntFlag{
		Name:  "top",
		Usage: "Length of the priority list",
		Value: cohort.DefaultTopN,
	}

	sizeFlag = &urfave.IntFlag{
		Name:  "n",
		Usage: "Number of synthetic subjects when no input is given",
		Value: 500,
	}

	minHbA1cFlag = &urfave.FloatFlag{
		Name:  "min-hba1c",
		Usage: "Only include rows with HbA1c at or above this value",
	}

	minCreatinineFlag = &urfave.FloatFlag{
		Name:  "min-creatinine",
		Usage: "Only include rows with creatinine at or above this value",
	}

	minPolypharmacyFlag = &urfave.FloatFlag{
		Name:  "min-polypharmacy",
		Usage: "Only include rows with at least this many medications",
	}

	todayFlag = &urfave.StringFlag{
		Name:  "today",
		Usage: "Reference date (YYYY-MM-DD, default: today)",
	}

	cohortCmd = &urfave.Command{
		Name:  "cohort",
		Usage: "Population views over scored cohorts",
		Commands: []*urfave.Command{
			{
				Name:   "summary",
				Usage:  "Risk distribution, tier shares and priority list of a cohort",
				Action: cmdCohortSummary,
				Flags: []urfave.Flag{
					inputFlag,
					sizeFlag,
					seedFlag,
					departmentFlag,
					sexFlag,
					ageMinFlag,
					ageMaxFlag,
					topFlag,
				},
			},
			{
				Name:   "deciles",
				Usage:  "Average survival curve per risk decile of a batch",
				Action: cmdCohortDeciles,
				Flags: []urfave.Flag{
					inputFlag,
					seedFlag,
				},
			},
			{
				Name:   "agenda",
				Usage:  "First follow-up date for every row of a batch, highest risk first",
				Action: cmdCohortAgenda,
				Flags: []urfave.Flag{
					inputFlag,
					seedFlag,
					todayFlag,
					minHbA1cFlag,
					minCreatinineFlag,
					minPolypharmacyFlag,
				},
			},
		},
	}
)

func cmdCohortSummary(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	var subjects []cohort.Subject
	if p := cmd.String(inputFlag.Name); p != "" {
		t, err := readTable(p)
		if err != nil {
			return err
		}
		if err := cfg.Engine.Table().ValidateColumns(t.Columns); err != nil {
			return err
		}
		subjects = sample.SubjectsFromTable(t)
	} else {
		subjects = sample.Population(cmd.Int(sizeFlag.Name), seed(cmd), true)
	}

	f := cohort.Filter{
		Department: cmd.String(departmentFlag.Name),
		Sex:        cmd.String(sexFlag.Name),
		AgeMin:     cmd.Float(ageMinFlag.Name),
		AgeMax:     cmd.Float(ageMaxFlag.Name),
	}

	scored, err := cohort.Score(ctx, cfg.Engine, f.Apply(subjects))
	if err != nil {
		return err
	}
	s, err := cohort.Summarize(scored, cmd.Int(topFlag.Name))
	if err != nil {
		return err
	}
	return output(cmd, s)
}

func cmdCohortDeciles(ctx context.Context, cmd *urfave.Command) error {
	in, err := readTable(cmd.String(inputFlag.Name))
	if err != nil {
		return err
	}
	rows, err := scoreBatchTable(ctx, in, seed(cmd))
	if err != nil {
		return err
	}
	d, err := cohort.Deciles(rows)
	if err != nil {
		return err
	}
	return output(cmd, d)
}

func cmdCohortAgenda(ctx context.Context, cmd *urfave.Command) error {
	today, err := referenceDate(cmd)
	if err != nil {
		return err
	}

	in, err := readTable(cmd.String(inputFlag.Name))
	if err != nil {
		return err
	}
	rows, err := scoreBatchTable(ctx, in, seed(cmd))
	if err != nil {
		return err
	}

	c := cohort.Criteria{
		MinHbA1c:        cmd.Float(minHbA1cFlag.Name),
		MinCreatinine:   cmd.Float(minCreatinineFlag.Name),
		MinPolypharmacy: cmd.Float(minPolypharmacyFlag.Name),
	}
	return output(cmd, cohort.Agenda(c.Select(rows), today))
}

func referenceDate(cmd *urfave.Command) (time.Time, error) {
	s := cmd.String(todayFlag.Name)
	if s == "" {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(time.DateOnly, s)
}
