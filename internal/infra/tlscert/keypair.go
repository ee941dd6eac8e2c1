package tlscert

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

var (
	// ErrLoadKeyPair is returned when the certificate or key cannot be
	// read, parsed, or do not belong together.
	ErrLoadKeyPair = errors.New("tlscert: load key pair")

	// ErrUnsupportedVersion is returned for an unknown minimum TLS version.
	ErrUnsupportedVersion = errors.New("tlscert: unsupported TLS version")
)

// expiryWarning is how close to NotAfter a certificate triggers a warning.
const expiryWarning = 7 * 24 * time.Hour

// Source supplies the certificate presented during the TLS handshake.
type Source interface {
	GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error)
	Leaf() *x509.Certificate
}

// KeyPair is a certificate and private key loaded once from disk.
type KeyPair struct {
	cert *tls.Certificate
}

// LoadKeyPair reads a PEM certificate chain and its private key.
// Missing files, malformed PEM and mismatched keys all wrap ErrLoadKeyPair.
func LoadKeyPair(certFile, keyFile string) (*KeyPair, error) {
	cert, err := loadCertificate(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	return &KeyPair{cert: cert}, nil
}

func loadCertificate(certFile, keyFile string) (*tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadKeyPair, err)
	}

	if cert.Leaf == nil {
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("%w: parse leaf: %w", ErrLoadKeyPair, err)
		}
		cert.Leaf = leaf
	}

	return &cert, nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (k *KeyPair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return k.cert, nil
}

// Leaf returns the parsed leaf certificate.
func (k *KeyPair) Leaf() *x509.Certificate {
	return k.cert.Leaf
}

// Validate inspects the leaf and returns human-readable warnings for a
// certificate that browsers will reject for reasons other than being
// self-signed. It never fails: an expired development certificate still
// serves, it just gets reported.
func Validate(leaf *x509.Certificate, now time.Time, host string) []string {
	if leaf == nil {
		return []string{"no leaf certificate"}
	}

	var warnings []string

	switch {
	case now.Before(leaf.NotBefore):
		warnings = append(warnings, fmt.Sprintf("certificate is not valid until %s", leaf.NotBefore.UTC().Format(time.RFC3339)))
	case now.After(leaf.NotAfter):
		warnings = append(warnings, fmt.Sprintf("certificate expired at %s", leaf.NotAfter.UTC().Format(time.RFC3339)))
	case leaf.NotAfter.Sub(now) < expiryWarning:
		warnings = append(warnings, fmt.Sprintf("certificate expires soon (%s)", leaf.NotAfter.UTC().Format(time.RFC3339)))
	}

	if host != "" {
		if err := leaf.VerifyHostname(host); err != nil {
			warnings = append(warnings, fmt.Sprintf("certificate does not cover %q", host))
		}
	}

	return warnings
}

// Info is a summary of a certificate for display.
type Info struct {
	Subject    string    `json:"subject" yaml:"subject"`
	Issuer     string    `json:"issuer" yaml:"issuer"`
	Hosts      []string  `json:"hosts" yaml:"hosts"`
	NotBefore  time.Time `json:"not_before" yaml:"not_before"`
	NotAfter   time.Time `json:"not_after" yaml:"not_after"`
	SelfSigned bool      `json:"self_signed" yaml:"self_signed"`
}

// Describe summarizes leaf.
func Describe(leaf *x509.Certificate) Info {
	hosts := make([]string, 0, len(leaf.DNSNames)+len(leaf.IPAddresses))
	hosts = append(hosts, leaf.DNSNames...)
	for _, ip := range leaf.IPAddresses {
		hosts = append(hosts, ip.String())
	}

	return Info{
		Subject:    leaf.Subject.String(),
		Issuer:     leaf.Issuer.String(),
		Hosts:      hosts,
		NotBefore:  leaf.NotBefore,
		NotAfter:   leaf.NotAfter,
		SelfSigned: leaf.CheckSignatureFrom(leaf) == nil,
	}
}

// ServerConfig builds the server TLS configuration. The certificate is
// resolved per handshake through src, so a reloading Source takes effect
// without replacing the returned config.
func ServerConfig(src Source, minVersion uint16) *tls.Config {
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}
	return &tls.Config{
		GetCertificate: src.GetCertificate,
		MinVersion:     minVersion,
		NextProtos:     []string{"h2", "http/1.1"},
	}
}

// ParseMinVersion converts "1.2" or "1.3" to a crypto/tls version constant.
func ParseMinVersion(s string) (uint16, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "tls") {
	case "1.2", "":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedVersion, s)
	}
}

// HostOf returns the host part of a listen address, mapping the
// unspecified address to "localhost" for display and hostname checks.
func HostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return "localhost"
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		return "localhost"
	}
	return host
}
