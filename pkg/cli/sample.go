package cli

import (
	"context"

	"github.com/mchmarny/riskpulse/pkg/sample"
	"github.com/mchmarny/riskpulse/pkg/table"
	urfave "github.com/urfave/cli/v3"
)

var (
	departmentsFlag = &urfave.BoolFlag{
		Name:  "departments",
		Usage: "Assign a department to every subject",
	}

	sampleCmd = &urfave.Command{
		Name:  "sample",
		Usage: "Generate synthetic data sets",
		Commands: []*urfave.Command{
			{
				Name:   "population",
				Usage:  "Subjects with every feature of the active feature table",
				Action: cmdSamplePopulation,
				Flags: []urfave.Flag{
					sizeFlag,
					seedFlag,
					departmentsFlag,
					outFlag,
				},
			},
			{
				Name:   "census",
				Usage:  "Hospital episodes in the clinical operations format",
				Action: cmdSampleCensus,
				Flags: []urfave.Flag{
					sizeFlag,
					seedFlag,
					todayFlag,
					outFlag,
				},
			},
		},
	}
)

func cmdSamplePopulation(_ context.Context, cmd *urfave.Command) error {
	subjects := sample.Population(cmd.Int(sizeFlag.Name), seed(cmd), cmd.Bool(departmentsFlag.Name))
	return writeTable(cmd, sample.PopulationTable(getConfig(cmd).Engine.Table(), subjects))
}

func cmdSampleCensus(_ context.Context, cmd *urfave.Command) error {
	today, err := referenceDate(cmd)
	if err != nil {
		return err
	}
	episodes, err := sample.Census(cmd.Int(sizeFlag.Name), seed(cmd), today)
	if err != nil {
		return err
	}
	return writeTable(cmd, sample.CensusTable(episodes))
}

func writeTable(cmd *urfave.Command, t *table.Table) error {
	w, closeOut, err := createOutput(cmd, cmd.String(outFlag.Name))
	if err != nil {
		return err
	}
	defer closeOut()
	return table.Write(w, t)
}
