package tlscert

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNoCertsFound is returned when no certificates are found in a PEM file.
	ErrNoCertsFound = errors.New("tlscert: no certificates found in PEM data")
)

// Pool is a set of trusted roots used by clients of the server, such as
// the probe command, to accept a self-signed certificate.
type Pool struct {
	certPool *x509.CertPool
}

// NewPool creates a pool seeded with the system roots.
// If system roots cannot be loaded, it creates an empty pool.
func NewPool() *Pool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}
}

// NewEmptyPool creates a pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// AddCertFile adds every certificate in a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlscert: read cert file %s: %w", path, err)
	}

	return p.AddCertPEM(data)
}

// AddCertPEM adds certificates from PEM-encoded data. Non-certificate
// blocks, such as a private key bundled in the same file, are skipped.
func (p *Pool) AddCertPEM(pemData []byte) error {
	var added int

	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlscert: parse certificate: %w", err)
		}

		p.certPool.AddCert(cert)
		added++
	}

	if added == 0 {
		return ErrNoCertsFound
	}
	return nil
}

// Pool returns the underlying x509.CertPool.
func (p *Pool) Pool() *x509.CertPool {
	return p.certPool
}

// ClientConfig creates a client TLS config trusting this pool.
// An empty serverName leaves hostname selection to the dialer.
func (p *Pool) ClientConfig(serverName string) *tls.Config {
	return &tls.Config{
		RootCAs:    p.certPool,
		ServerName: serverName,
		MinVersion: tls.VersionTLS12,
	}
}
