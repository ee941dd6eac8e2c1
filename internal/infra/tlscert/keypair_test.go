package tlscert

import (
	"crypto/tls"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadKeyPair(t *testing.T) {
	nb, na := validWindow()
	certFile, keyFile := testPair(t, t.TempDir(), nb, na)

	kp, err := LoadKeyPair(certFile, keyFile)
	if err != nil {
		t.Fatalf("LoadKeyPair() error = %v", err)
	}
	if kp.Leaf() == nil {
		t.Fatal("Leaf() = nil")
	}
	if kp.Leaf().Subject.CommonName != "localhost" {
		t.Errorf("CommonName = %q, want localhost", kp.Leaf().Subject.CommonName)
	}

	cert, err := kp.GetCertificate(nil)
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate() = %v, %v", cert, err)
	}
	if cert != kp.cert {
		t.Error("GetCertificate() should return the loaded certificate")
	}
}

func TestLoadKeyPair_Errors(t *testing.T) {
	nb, na := validWindow()

	tests := []struct {
		name  string
		setup func(t *testing.T, dir string) (string, string)
	}{
		{
			name: "missing cert",
			setup: func(t *testing.T, dir string) (string, string) {
				_, keyFile := testPair(t, dir, nb, na)
				return filepath.Join(dir, "nope.pem"), keyFile
			},
		},
		{
			name: "missing key",
			setup: func(t *testing.T, dir string) (string, string) {
				certFile, _ := testPair(t, dir, nb, na)
				return certFile, filepath.Join(dir, "nope.pem")
			},
		},
		{
			name: "garbage pem",
			setup: func(t *testing.T, dir string) (string, string) {
				certFile := filepath.Join(dir, "cert.pem")
				keyFile := filepath.Join(dir, "key.pem")
				os.WriteFile(certFile, []byte("invalid"), 0o644)
				os.WriteFile(keyFile, []byte("invalid"), 0o600)
				return certFile, keyFile
			},
		},
		{
			name: "mismatched key",
			setup: func(t *testing.T, dir string) (string, string) {
				certFile, _ := testPair(t, dir, nb, na)
				other := filepath.Join(dir, "other")
				os.Mkdir(other, 0o755)
				_, keyFile := testPair(t, other, nb, na)
				return certFile, keyFile
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certFile, keyFile := tt.setup(t, t.TempDir())
			_, err := LoadKeyPair(certFile, keyFile)
			if !errors.Is(err, ErrLoadKeyPair) {
				t.Errorf("LoadKeyPair() error = %v, want ErrLoadKeyPair", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	now := time.Now()
	dir := t.TempDir()

	tests := []struct {
		name      string
		notBefore time.Time
		notAfter  time.Time
		host      string
		want      string
	}{
		{"valid", now.Add(-time.Hour), now.Add(30 * 24 * time.Hour), "localhost", ""},
		{"expired", now.Add(-48 * time.Hour), now.Add(-24 * time.Hour), "", "expired"},
		{"not yet valid", now.Add(time.Hour), now.Add(48 * time.Hour), "", "not valid until"},
		{"expires soon", now.Add(-time.Hour), now.Add(24 * time.Hour), "", "expires soon"},
		{"wrong host", now.Add(-time.Hour), now.Add(30 * 24 * time.Hour), "example.com", "does not cover"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_"))
			os.Mkdir(sub, 0o755)
			certFile, keyFile := testPair(t, sub, tt.notBefore, tt.notAfter)

			kp, err := LoadKeyPair(certFile, keyFile)
			if err != nil {
				t.Fatalf("LoadKeyPair() error = %v", err)
			}

			warnings := Validate(kp.Leaf(), now, tt.host)
			if tt.want == "" {
				if len(warnings) != 0 {
					t.Errorf("Validate() = %v, want none", warnings)
				}
				return
			}
			if len(warnings) != 1 || !strings.Contains(warnings[0], tt.want) {
				t.Errorf("Validate() = %v, want one containing %q", warnings, tt.want)
			}
		})
	}
}

func TestValidate_NilLeaf(t *testing.T) {
	if got := Validate(nil, time.Now(), ""); len(got) != 1 {
		t.Errorf("Validate(nil) = %v, want one warning", got)
	}
}

func TestDescribe(t *testing.T) {
	nb, na := validWindow()
	certFile, keyFile := testPair(t, t.TempDir(), nb, na)

	kp, err := LoadKeyPair(certFile, keyFile)
	if err != nil {
		t.Fatalf("LoadKeyPair() error = %v", err)
	}

	info := Describe(kp.Leaf())
	if !info.SelfSigned {
		t.Error("SelfSigned = false, want true")
	}
	if len(info.Hosts) != 2 || info.Hosts[0] != "localhost" || info.Hosts[1] != "127.0.0.1" {
		t.Errorf("Hosts = %v, want [localhost 127.0.0.1]", info.Hosts)
	}
	if !info.NotAfter.Equal(kp.Leaf().NotAfter) {
		t.Errorf("NotAfter = %v, want %v", info.NotAfter, kp.Leaf().NotAfter)
	}
}

func TestServerConfig(t *testing.T) {
	nb, na := validWindow()
	certFile, keyFile := testPair(t, t.TempDir(), nb, na)

	kp, err := LoadKeyPair(certFile, keyFile)
	if err != nil {
		t.Fatalf("LoadKeyPair() error = %v", err)
	}

	cfg := ServerConfig(kp, 0)
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", cfg.MinVersion)
	}
	if len(cfg.NextProtos) != 2 || cfg.NextProtos[0] != "h2" {
		t.Errorf("NextProtos = %v", cfg.NextProtos)
	}

	cert, err := cfg.GetCertificate(&tls.ClientHelloInfo{})
	if err != nil || cert != kp.cert {
		t.Errorf("GetCertificate() = %v, %v", cert, err)
	}

	if got := ServerConfig(kp, tls.VersionTLS13).MinVersion; got != tls.VersionTLS13 {
		t.Errorf("MinVersion = %x, want TLS 1.3", got)
	}
}

func TestParseMinVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{"", tls.VersionTLS12, false},
		{"1.2", tls.VersionTLS12, false},
		{"TLS1.3", tls.VersionTLS13, false},
		{" 1.3 ", tls.VersionTLS13, false},
		{"1.1", 0, true},
		{"ssl3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMinVersion(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedVersion) {
					t.Errorf("ParseMinVersion(%q) error = %v, want ErrUnsupportedVersion", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseMinVersion(%q) = %x, %v; want %x", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestHostOf(t *testing.T) {
	tests := map[string]string{
		":8443":          "localhost",
		"0.0.0.0:8443":   "localhost",
		"[::]:8443":      "localhost",
		"127.0.0.1:8443": "127.0.0.1",
		"dev.local:443":  "dev.local",
		"garbage":        "localhost",
	}
	for in, want := range tests {
		if got := HostOf(in); got != want {
			t.Errorf("HostOf(%q) = %q, want %q", in, got, want)
		}
	}
}
