// Package connectivity reports whether the remote API is reachable.
package connectivity

import (
	"context"
	"net"
	"net/url"
	"sync/atomic"
	"time"
)

// Probe answers the single question repositories ask before choosing the
// online or offline path.
type Probe interface {
	Online(ctx context.Context) bool
}

// DialProbe considers the network available when a TCP connection to the
// API host can be opened within Timeout.
type DialProbe struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
}

// NewDialProbe returns a probe for the host of baseURL. Missing ports default
// from the URL scheme.
func NewDialProbe(baseURL string, timeout time.Duration) (*DialProbe, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &DialProbe{addr: net.JoinHostPort(u.Hostname(), port), timeout: timeout}, nil
}

// Online dials the API host and closes the connection right away.
func (p *DialProbe) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	conn, err := p.dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Static is a probe with a fixed answer that can be flipped at runtime. It
// backs --offline and tests.
type Static struct {
	online atomic.Bool
}

// NewStatic returns a Static probe with the given initial state.
func NewStatic(online bool) *Static {
	s := &Static{}
	s.online.Store(online)
	return s
}

func (s *Static) Online(context.Context) bool { return s.online.Load() }

// Set changes the reported state.
func (s *Static) Set(online bool) { s.online.Store(online) }
