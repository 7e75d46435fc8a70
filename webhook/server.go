package webhook

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
)

// TLSConfig carries the certificate material for an HTTPS listener. Cert,
// Key and CA each hold either PEM data or the path of a PEM file; values
// containing a PEM header are used as-is, anything else is read from disk.
// CA is optional and, when present, populates the pool offered for client
// certificate verification.
type TLSConfig struct {
	Cert string
	Key  string
	CA   string
}

func loadPEM(v string) ([]byte, error) {
	if strings.Contains(v, "-----BEGIN") {
		return []byte(v), nil
	}
	data, err := os.ReadFile(v)
	if err != nil {
		return nil, fmt.Errorf("failed to read PEM file %q: %w", v, err)
	}
	return data, nil
}

func (c *TLSConfig) build() (*tls.Config, error) {
	certPEM, err := loadPEM(c.Cert)
	if err != nil {
		return nil, err
	}
	keyPEM, err := loadPEM(c.Key)
	if err != nil {
		return nil, err
	}
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate pair: %w", err)
	}

	conf := &tls.Config{Certificates: []tls.Certificate{cert}}
	if c.CA != "" {
		caPEM, err := loadPEM(c.CA)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no certificates found in CA material")
		}
		conf.ClientCAs = pool
	}
	return conf, nil
}

// Server owns the listening socket a Receiver is mounted on. The zero value
// is not usable; create one with NewServer.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	tls    *TLSConfig
	logger *slog.Logger
}

// NewServer prepares a listener on addr serving handler. A nil tlsConf means
// plain HTTP.
func NewServer(addr string, handler http.Handler, tlsConf *TLSConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		srv:    &http.Server{Addr: addr, Handler: handler},
		tls:    tlsConf,
		logger: logger,
	}
}

// Start binds the socket and begins serving in the background. It returns
// once the listener is bound, so Addr is valid afterwards.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind webhook listener on %s: %w", s.srv.Addr, err)
	}

	if s.tls != nil {
		conf, err := s.tls.build()
		if err != nil {
			ln.Close()
			return err
		}
		ln = tls.NewListener(ln, conf)
	}
	s.ln = ln

	s.logger.Info("webhook listener started", "addr", ln.Addr().String(), "tls", s.tls != nil)
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("webhook listener stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, useful when Start was given port 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.srv.Addr
	}
	return s.ln.Addr().String()
}

// Shutdown stops the listener, waiting for in-flight requests up to the
// context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
