package command

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/statictls/internal/cli/output"
	"github.com/yndnr/statictls/internal/infra/tlscert"
	"github.com/yndnr/statictls/internal/server/config"
)

// ProbeCommand returns the probe subcommand.
func ProbeCommand() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Check a running server over TLS, trusting its certificate file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "Server address",
				Value:   config.DefaultAddr,
			},
			&cli.StringFlag{
				Name:  "cert",
				Usage: "Certificate to trust in addition to the system roots",
				Value: config.DefaultCertFile,
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "Request path",
				Value: "/",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 5 * time.Second,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output format: text, json, yaml",
				Value:   string(output.FormatText),
			},
		},
		Action: probeAction,
	}
}

func probeAction(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	result, err := Probe(c.Context, ProbeOptions{
		Addr:     c.String("addr"),
		CertFile: c.String("cert"),
		Path:     c.String("path"),
		Timeout:  c.Duration("timeout"),
	})
	if err != nil {
		return err
	}

	return output.NewFormatter(format).Format(c.App.Writer, result)
}

// ProbeOptions configures Probe.
type ProbeOptions struct {
	Addr     string
	CertFile string
	Path     string
	Timeout  time.Duration
}

// ProbeResult describes one request against the server.
type ProbeResult struct {
	URL         string        `json:"url" yaml:"url"`
	Status      int           `json:"status" yaml:"status"`
	Proto       string        `json:"proto" yaml:"proto"`
	TLSVersion  string        `json:"tls_version" yaml:"tls_version"`
	CipherSuite string        `json:"cipher_suite" yaml:"cipher_suite"`
	Latency     time.Duration `json:"latency" yaml:"latency"`
	Certificate tlscert.Info  `json:"certificate" yaml:"certificate"`
	Warnings    []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Probe requests opts.Path from the server, verifying the chain against
// opts.CertFile and the system roots.
func Probe(ctx context.Context, opts ProbeOptions) (*ProbeResult, error) {
	if !strings.HasPrefix(opts.Path, "/") {
		opts.Path = "/" + opts.Path
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	_, port, err := net.SplitHostPort(opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	host := tlscert.HostOf(opts.Addr)

	pool := tlscert.NewPool()
	if err := pool.AddCertFile(opts.CertFile); err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}

	transport := &http.Transport{
		TLSClientConfig:   pool.ClientConfig(host),
		ForceAttemptHTTP2: true,
	}
	defer transport.CloseIdleConnections()

	client := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	url := "https://" + net.JoinHostPort(host, port) + opts.Path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}
	resp.Body.Close()

	if resp.TLS == nil || len(resp.TLS.PeerCertificates) == 0 {
		return nil, errors.New("probe: response carried no TLS state")
	}
	leaf := resp.TLS.PeerCertificates[0]

	return &ProbeResult{
		URL:         url,
		Status:      resp.StatusCode,
		Proto:       resp.Proto,
		TLSVersion:  tls.VersionName(resp.TLS.Version),
		CipherSuite: tls.CipherSuiteName(resp.TLS.CipherSuite),
		Latency:     time.Since(start).Round(time.Microsecond),
		Certificate: tlscert.Describe(leaf),
		Warnings:    tlscert.Validate(leaf, time.Now(), host),
	}, nil
}
