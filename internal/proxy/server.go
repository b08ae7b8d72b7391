// Package proxy runs the TLS-intercepting HTTP proxy the wallet is pointed at.
package proxy

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/elazarl/goproxy"
	"github.com/hunterwarburton/walletproxy/internal/intercept"
	"github.com/hunterwarburton/walletproxy/internal/logger"
)

// Server is the intercepting proxy. Every CONNECT is man-in-the-middled so
// that decrypted requests reach the interception handler.
type Server struct {
	addr   string
	proxy  *goproxy.ProxyHttpServer
	server *http.Server
}

// goproxyLogger routes goproxy's own logging through the logger: at info
// level in verbose mode, otherwise at debug level.
type goproxyLogger struct {
	verbose bool
}

func (l goproxyLogger) Printf(format string, v ...interface{}) {
	format = strings.TrimSuffix(format, "\n")
	if l.verbose {
		logger.Info(format, v...)
		return
	}
	logger.Debug(format, v...)
}

// NewServer creates a proxy listening on addr. A nil ca falls back to
// goproxy's built-in CA, which wallets will only trust if it was installed.
func NewServer(addr string, ca *tls.Certificate, h *intercept.Handler, verbose bool) *Server {
	if ca == nil {
		logger.Warn("No CA configured, signing intercepted hosts with goproxy's built-in CA")
		ca = &goproxy.GoproxyCa
	}

	p := goproxy.NewProxyHttpServer()
	p.Verbose = verbose
	p.Logger = goproxyLogger{verbose: verbose}

	mitm := &goproxy.ConnectAction{
		Action:    goproxy.ConnectMitm,
		TLSConfig: goproxy.TLSConfigFromCA(ca),
	}
	p.OnRequest().HandleConnect(goproxy.FuncHttpsHandler(func(host string, ctx *goproxy.ProxyCtx) (*goproxy.ConnectAction, string) {
		logger.Debug("Intercepting CONNECT to %s", host)
		return mitm, host
	}))
	p.OnRequest().DoFunc(h.OnRequest)

	return &Server{
		addr:  addr,
		proxy: p,
		server: &http.Server{
			Addr:    addr,
			Handler: p,
		},
	}
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(l)
}

// Serve accepts proxy connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	logger.Info("Proxy listening on %s", l.Addr())
	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("proxy server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down proxy...")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("proxy shutdown error: %w", err)
	}
	logger.Info("Proxy shut down successfully")
	return nil
}

// LoadCA reads a PEM encoded CA private key and certificate. The certificate
// must be allowed to sign other certificates.
func LoadCA(keyPath, certPath string) (*tls.Certificate, error) {
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA key: %w", err)
	}
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	ca, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CA key pair: %w", err)
	}
	if ca.Leaf == nil {
		leaf, err := x509.ParseCertificate(ca.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("failed to parse CA certificate: %w", err)
		}
		ca.Leaf = leaf
	}
	if !ca.Leaf.IsCA {
		return nil, fmt.Errorf("certificate %s is not a CA", certPath)
	}

	logger.Info("Loaded CA %q", ca.Leaf.Subject.CommonName)
	return &ca, nil
}
