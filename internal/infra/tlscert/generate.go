package tlscert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"
)

// ErrCertExists is returned by Generate when an output file exists and
// Force is not set.
var ErrCertExists = errors.New("tlscert: certificate file already exists")

// DefaultHosts are the names a development certificate covers.
var DefaultHosts = []string{"localhost", "127.0.0.1", "::1"}

// GenerateOptions controls self-signed certificate generation.
type GenerateOptions struct {
	CertFile     string
	KeyFile      string
	Hosts        []string
	ValidFor     time.Duration
	Organization string
	Force        bool

	// now is overridable in tests.
	now func() time.Time
}

// Generate creates an ECDSA P-256 self-signed certificate and writes it
// to CertFile (0644) and KeyFile (0600) as PEM.
func Generate(opts GenerateOptions) (*KeyPair, error) {
	if opts.CertFile == "" || opts.KeyFile == "" {
		return nil, errors.New("tlscert: cert and key paths are required")
	}
	if len(opts.Hosts) == 0 {
		opts.Hosts = DefaultHosts
	}
	if opts.ValidFor <= 0 {
		opts.ValidFor = 365 * 24 * time.Hour
	}
	if opts.Organization == "" {
		opts.Organization = "statictls development"
	}
	if opts.now == nil {
		opts.now = time.Now
	}

	if !opts.Force {
		for _, path := range []string{opts.CertFile, opts.KeyFile} {
			if _, err := os.Stat(path); err == nil {
				return nil, fmt.Errorf("%w: %s", ErrCertExists, path)
			}
		}
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("tlscert: generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("tlscert: generate serial: %w", err)
	}

	notBefore := opts.now().Add(-time.Hour)
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{opts.Organization},
			CommonName:   opts.Hosts[0],
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(opts.ValidFor),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	for _, h := range opts.Hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("tlscert: create certificate: %w", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("tlscert: marshal key: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	if err := writeFile(opts.KeyFile, keyPEM, 0o600); err != nil {
		return nil, err
	}
	if err := writeFile(opts.CertFile, certPEM, 0o644); err != nil {
		return nil, err
	}

	return LoadKeyPair(opts.CertFile, opts.KeyFile)
}

func writeFile(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("tlscert: open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("tlscert: write %s: %w", path, err)
	}
	if err := f.Chmod(perm); err != nil {
		f.Close()
		return fmt.Errorf("tlscert: chmod %s: %w", path, err)
	}
	return f.Close()
}
