package metric

import (
	"crypto/x509"

	"github.com/prometheus/client_golang/prometheus"
)

// CertCollector reports the expiry of the certificate currently served.
// It reads the certificate on every scrape, so it follows hot reloads.
type CertCollector struct {
	current  func() *x509.Certificate
	notAfter *prometheus.Desc
}

// NewCollector creates a collector that calls current on each scrape.
// current may return nil while no certificate is loaded.
func NewCollector(current func() *x509.Certificate) *CertCollector {
	return &CertCollector{
		current: current,
		notAfter: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "cert", "not_after_seconds"),
			"Expiry of the served certificate as a Unix timestamp.",
			[]string{"subject"},
			nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *CertCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.notAfter
}

// Collect implements prometheus.Collector.
func (c *CertCollector) Collect(ch chan<- prometheus.Metric) {
	cert := c.current()
	if cert == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(
		c.notAfter,
		prometheus.GaugeValue,
		float64(cert.NotAfter.Unix()),
		cert.Subject.CommonName,
	)
}
