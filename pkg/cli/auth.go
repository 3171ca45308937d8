package cli

import (
	"bufio"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mchmarny/riskpulse/pkg/auth"
	urfave "github.com/urfave/cli/v3"
)

var (
	userFlag = &urfave.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "API username",
		Required: true,
	}

	passwordFlag = &urfave.StringFlag{
		Name:    "password",
		Aliases: []string{"p"},
		Usage:   "API password (default: read from stdin)",
	}

	pepperSetFlag = &urfave.StringFlag{
		Name:  "set",
		Usage: "Store this pepper in the OS keychain",
	}

	pepperGenerateFlag = &urfave.BoolFlag{
		Name:  "generate",
		Usage: "Generate a random pepper and store it in the OS keychain",
	}

	pepperDeleteFlag = &urfave.BoolFlag{
		Name:  "delete",
		Usage: "Remove the pepper from the OS keychain",
	}

	authCmd = &urfave.Command{
		Name:  "auth",
		Usage: "Manage API credentials",
		Commands: []*urfave.Command{
			{
				Name:   "hash",
				Usage:  "Print the credential hash to add under auth.users in the config",
				Action: cmdAuthHash,
				Flags: []urfave.Flag{
					userFlag,
					passwordFlag,
				},
			},
			{
				Name:   "pepper",
				Usage:  "Manage the credential pepper kept in the OS keychain",
				Action: cmdAuthPepper,
				Flags: []urfave.Flag{
					pepperSetFlag,
					pepperGenerateFlag,
					pepperDeleteFlag,
				},
			},
		},
	}
)

func cmdAuthHash(_ context.Context, cmd *urfave.Command) error {
	pepper, err := auth.GetPepper()
	if err != nil {
		if errors.Is(err, auth.ErrNoPepper) {
			return fmt.Errorf("%w: run 'riskpulse auth pepper --generate' first", err)
		}
		return err
	}

	pass := cmd.String(passwordFlag.Name)
	if pass == "" {
		fmt.Fprint(os.Stderr, "password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading password: %w", err)
		}
		pass = strings.TrimSpace(line)
	}
	if pass == "" {
		return errors.New("password cannot be empty")
	}

	user := cmd.String(userFlag.Name)
	fmt.Fprintf(cmd.Root().Writer, "%s: %s\n", user, auth.Hash(user, pass, pepper))
	return nil
}

func cmdAuthPepper(_ context.Context, cmd *urfave.Command) error {
	w := cmd.Root().Writer

	switch {
	case cmd.Bool(pepperDeleteFlag.Name):
		if err := auth.DeletePepper(); err != nil {
			return err
		}
		fmt.Fprintln(w, "Pepper removed from OS keychain")
	case cmd.Bool(pepperGenerateFlag.Name):
		if err := auth.SavePepper(rand.Text()); err != nil {
			return err
		}
		fmt.Fprintln(w, "Pepper saved to OS keychain")
	case cmd.String(pepperSetFlag.Name) != "":
		if err := auth.SavePepper(cmd.String(pepperSetFlag.Name)); err != nil {
			return err
		}
		fmt.Fprintln(w, "Pepper saved to OS keychain")
	default:
		if _, err := auth.GetPepper(); err != nil {
			return err
		}
		fmt.Fprintln(w, "Pepper configured")
	}
	return nil
}
