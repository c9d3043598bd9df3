package checker

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/NordCoder/SiteStatus/internal/domain/status"
)

var ErrNoCertificate = errors.New("no peer certificate")

// CertInspector reads the leaf certificate of a host with a bare TLS
// handshake. No application request is sent.
type CertInspector struct {
	Timeout time.Duration
	Port    int
}

// InspectionHost strips any scheme, forces https and returns the hostname.
func InspectionHost(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "https://")
	u, err := url.Parse("https://" + s)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("no host in %q", raw)
	}
	return host, nil
}

func (i CertInspector) Inspect(ctx context.Context, raw string) (*status.CertificateInfo, error) {
	host, err := InspectionHost(raw)
	if err != nil {
		return nil, err
	}
	timeout := i.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	port := i.Port
	if port <= 0 {
		port = 443
	}

	cfg := &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	if net.ParseIP(host) == nil {
		cfg.ServerName = host
	}
	dialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: timeout}, Config: cfg}

	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := dialer.DialContext(dctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("tls handshake %s: %w", host, err)
	}
	defer conn.Close()

	tconn, ok := conn.(*tls.Conn)
	if !ok {
		return nil, fmt.Errorf("tls handshake %s: unexpected conn %T", host, conn)
	}
	certs := tconn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil, fmt.Errorf("%s: %w", host, ErrNoCertificate)
	}

	leaf := certs[0]
	return &status.CertificateInfo{
		Subject:   leaf.Subject.CommonName,
		Issuer:    leaf.Issuer.CommonName,
		NotBefore: leaf.NotBefore,
		ValidTo:   leaf.NotAfter,
		DNSNames:  leaf.DNSNames,
	}, nil
}
