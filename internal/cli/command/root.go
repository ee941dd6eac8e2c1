package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/statictls/internal/infra/buildinfo"
)

// App creates the CLI application. Running it without a subcommand
// serves files, so a bare invocation behaves like "serve".
func App(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "statictls-server",
		Usage:     "Serve a directory over HTTPS with a self-signed certificate",
		Version:   buildinfo.String(),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     serveFlags(),
		Action:    serveAction,
		Commands: []*cli.Command{
			ServeCommand(),
			GenCertCommand(),
			ProbeCommand(),
			ConfigCommand(),
		},
	}
}

// serveFlags returns the flags shared by serve and config. Each call
// builds fresh flag values so the app and subcommands do not share state.
func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to YAML configuration file",
		},
		&cli.StringFlag{
			Name:    "addr",
			Aliases: []string{"a"},
			Usage:   "Listen address (default \":8443\")",
		},
		&cli.StringFlag{
			Name:    "root",
			Aliases: []string{"r"},
			Usage:   "Directory to serve (default \".\")",
		},
		&cli.StringFlag{
			Name:  "cert",
			Usage: "PEM certificate file (default \"cert.pem\")",
		},
		&cli.StringFlag{
			Name:  "key",
			Usage: "PEM private key file (default \"key.pem\")",
		},
		&cli.StringFlag{
			Name:  "admin-addr",
			Usage: "Plain HTTP address for /health, /ready, /metrics and /version",
		},
		&cli.BoolFlag{
			Name:  "watch-cert",
			Usage: "Reload the certificate when cert or key file changes",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
	}
}

// flagOverrides maps explicitly set flags onto configuration keys.
// Unset flags leave file and environment values in place.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)

	for flag, key := range map[string]string{
		"addr":       "server.addr",
		"root":       "server.root",
		"cert":       "tls.cert_file",
		"key":        "tls.key_file",
		"admin-addr": "admin.addr",
		"log-level":  "log.level",
		"log-format": "log.format",
	} {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	if c.IsSet("watch-cert") {
		overrides["tls.watch"] = c.Bool("watch-cert")
	}

	return overrides
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
