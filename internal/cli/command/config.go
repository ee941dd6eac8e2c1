package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/statictls/internal/cli/output"
	"github.com/yndnr/statictls/internal/server/config"
)

// ConfigCommand returns the config subcommand.
func ConfigCommand() *cli.Command {
	flags := append(serveFlags(), &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output format: text, json, yaml",
		Value:   string(output.FormatText),
	})

	return &cli.Command{
		Name:   "config",
		Usage:  "Print the effective configuration after merging file, env and flags",
		Flags:  flags,
		Action: configAction,
	}
}

func configAction(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.String("config"), flagOverrides(c))
	if err != nil {
		return err
	}

	if err := output.NewFormatter(format).Format(c.App.Writer, cfg); err != nil {
		return err
	}

	// Printed first so the offending values are visible.
	return config.Verify(cfg)
}
