package command

import (
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestProbe(t *testing.T) {
	cfg := testConfig(t)
	r := startServe(t, cfg)

	result, err := Probe(t.Context(), ProbeOptions{
		Addr:     r.addrs.Addr.String(),
		CertFile: cfg.TLS.CertFile,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	if result.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", result.Status)
	}
	if result.Proto != "HTTP/2.0" {
		t.Errorf("Proto = %q, want HTTP/2.0", result.Proto)
	}
	if result.TLSVersion != "TLS 1.3" {
		t.Errorf("TLSVersion = %q, want TLS 1.3", result.TLSVersion)
	}
	if result.CipherSuite == "" {
		t.Error("CipherSuite is empty")
	}
	if !slices.Contains(result.Certificate.Hosts, "localhost") {
		t.Errorf("Certificate.Hosts = %v, want localhost", result.Certificate.Hosts)
	}
	if !result.Certificate.SelfSigned {
		t.Error("Certificate.SelfSigned = false")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", result.Warnings)
	}
}

func TestProbe_MissingPath(t *testing.T) {
	cfg := testConfig(t)
	r := startServe(t, cfg)

	result, err := Probe(t.Context(), ProbeOptions{
		Addr:     r.addrs.Addr.String(),
		CertFile: cfg.TLS.CertFile,
		Path:     "/nope.txt",
	})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if result.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", result.Status)
	}
}

func TestProbe_PathWithoutSlash(t *testing.T) {
	cfg := testConfig(t)
	r := startServe(t, cfg)

	result, err := Probe(t.Context(), ProbeOptions{
		Addr:     r.addrs.Addr.String(),
		CertFile: cfg.TLS.CertFile,
		Path:     "index.html",
	})
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if !strings.HasSuffix(result.URL, ":"+portOf(r.addrs.Addr)+"/index.html") {
		t.Errorf("URL = %q, want it to end in /index.html", result.URL)
	}
	if result.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", result.Status)
	}
}

func portOf(addr net.Addr) string {
	_, port, _ := net.SplitHostPort(addr.String())
	return port
}

func TestProbe_UntrustedCertificate(t *testing.T) {
	cfg := testConfig(t)
	other := testConfig(t)
	r := startServe(t, cfg)

	_, err := Probe(t.Context(), ProbeOptions{
		Addr:     r.addrs.Addr.String(),
		CertFile: other.TLS.CertFile,
	})
	if err == nil {
		t.Fatal("Probe() trusting the wrong certificate succeeded")
	}
}

func TestProbe_Errors(t *testing.T) {
	if _, err := Probe(t.Context(), ProbeOptions{Addr: "no-port"}); err == nil {
		t.Error("Probe() with address lacking a port succeeded")
	}

	_, err := Probe(t.Context(), ProbeOptions{
		Addr:     "127.0.0.1:8443",
		CertFile: filepath.Join(t.TempDir(), "missing.pem"),
	})
	if err == nil {
		t.Error("Probe() with a missing certificate file succeeded")
	}
}

func TestApp_Probe(t *testing.T) {
	cfg := testConfig(t)
	r := startServe(t, cfg)

	_, port, _ := net.SplitHostPort(r.addrs.Addr.String())
	out, err := runApp(t, "probe",
		"--addr", "localhost:"+port,
		"--cert", cfg.TLS.CertFile,
		"--output", "json")
	if err != nil {
		t.Fatalf("probe error = %v", err)
	}

	var got ProbeResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if got.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", got.Status)
	}
	if !strings.HasPrefix(got.URL, "https://localhost:") {
		t.Errorf("url = %q", got.URL)
	}
}
