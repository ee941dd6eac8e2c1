package command

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/statictls/internal/infra/tlscert"
	"github.com/yndnr/statictls/internal/server/config"
)

// GenCertCommand returns the gencert subcommand.
func GenCertCommand() *cli.Command {
	return &cli.Command{
		Name:  "gencert",
		Usage: "Generate a self-signed certificate for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "cert",
				Usage: "Certificate output file",
				Value: config.DefaultCertFile,
			},
			&cli.StringFlag{
				Name:  "key",
				Usage: "Private key output file (written with mode 0600)",
				Value: config.DefaultKeyFile,
			},
			&cli.StringSliceFlag{
				Name:  "host",
				Usage: "DNS name or IP the certificate covers (repeatable)",
				Value: cli.NewStringSlice(tlscert.DefaultHosts...),
			},
			&cli.IntFlag{
				Name:  "days",
				Usage: "Validity period in days",
				Value: 365,
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Overwrite existing files",
			},
		},
		Action: genCertAction,
	}
}

func genCertAction(c *cli.Context) error {
	days := c.Int("days")
	if days <= 0 {
		return fmt.Errorf("--days must be positive, got %d", days)
	}

	kp, err := tlscert.Generate(tlscert.GenerateOptions{
		CertFile: c.String("cert"),
		KeyFile:  c.String("key"),
		Hosts:    c.StringSlice("host"),
		ValidFor: time.Duration(days) * 24 * time.Hour,
		Force:    c.Bool("force"),
	})
	if errors.Is(err, tlscert.ErrCertExists) {
		return fmt.Errorf("%w (use --force to overwrite)", err)
	}
	if err != nil {
		return err
	}

	info := tlscert.Describe(kp.Leaf())
	fmt.Fprintf(c.App.Writer, "Wrote %s and %s\n", c.String("cert"), c.String("key"))
	fmt.Fprintf(c.App.Writer, "Hosts: %s\n", strings.Join(info.Hosts, ", "))
	fmt.Fprintf(c.App.Writer, "Valid until: %s\n", info.NotAfter.UTC().Format(time.RFC3339))
	return nil
}
