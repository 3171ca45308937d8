package cli

import (
	"context"
	"errors"

	"github.com/mchmarny/riskpulse/pkg/data"
	urfave "github.com/urfave/cli/v3"
)

var (
	subjectFlag = &urfave.StringFlag{
		Name:    "subject",
		Aliases: []string{"s"},
		Usage:   "Subject (patient) id",
	}

	actionTextFlag = &urfave.StringFlag{
		Name:    "action",
		Aliases: []string{"a"},
		Usage:   "Intervention performed",
	}

	noteFlag = &urfave.StringFlag{
		Name:  "note",
		Usage: "Free text note",
	}

	actionCmd = &urfave.Command{
		Name:  "action",
		Usage: "Record and list interventions taken on subjects",
		Commands: []*urfave.Command{
			{
				Name:   "add",
				Usage:  "Record an intervention",
				Action: cmdActionAdd,
				Flags: []urfave.Flag{
					subjectFlag,
					actionTextFlag,
					noteFlag,
				},
			},
			{
				Name:   "list",
				Usage:  "List recorded interventions, optionally for one subject",
				Action: cmdActionList,
				Flags: []urfave.Flag{
					subjectFlag,
				},
			},
			{
				Name:   "export",
				Usage:  "Export recorded interventions as CSV",
				Action: cmdActionExport,
				Flags: []urfave.Flag{
					subjectFlag,
					outFlag,
				},
			},
		},
	}
)

func cmdActionAdd(ctx context.Context, cmd *urfave.Command) error {
	a, err := data.NewAction(cmd.String(subjectFlag.Name), cmd.String(actionTextFlag.Name), cmd.String(noteFlag.Name))
	if err != nil {
		return err
	}

	store, err := openStore(ctx, getConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.AddAction(ctx, a); err != nil {
		return err
	}
	return output(cmd, a)
}

func listActions(ctx context.Context, cmd *urfave.Command) ([]*data.Action, error) {
	store, err := openStore(ctx, getConfig(cmd))
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.ListActions(ctx, cmd.String(subjectFlag.Name))
}

func cmdActionList(ctx context.Context, cmd *urfave.Command) error {
	list, err := listActions(ctx, cmd)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*data.Action{}
	}
	return output(cmd, list)
}

func cmdActionExport(ctx context.Context, cmd *urfave.Command) (err error) {
	list, err := listActions(ctx, cmd)
	if err != nil {
		return err
	}

	w, closeOut, err := createOutput(cmd, cmd.String(outFlag.Name))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeOut())
	}()
	return data.ExportCSV(w, list)
}
