package gateway

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/fylaro/fylaro-backend/pkg/logging"
)

// Start serves the gateway until ctx is cancelled, then shuts down
// gracefully. With HTTPS enabled it runs an autocert-backed TLS listener plus
// a plain HTTP server for the ACME challenge and redirect.
func (g *Gateway) Start(ctx context.Context) error {
	if g.cfg.EnableHTTPS {
		return g.startHTTPS(ctx)
	}

	server := &http.Server{
		Addr:    g.cfg.ListenAddr,
		Handler: g.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.ComponentInfo(logging.ComponentGateway, "HTTP server starting",
			zap.String("addr", g.cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return shutdown(server)
	}
}

func (g *Gateway) startHTTPS(ctx context.Context) error {
	if g.cfg.DomainName == "" {
		return fmt.Errorf("HTTPS enabled but no domain name configured")
	}

	cacheDir := g.cfg.TLSCacheDir
	if cacheDir == "" {
		cacheDir = "tls-cache"
	}

	certManager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(g.cfg.DomainName),
		Cache:      autocert.DirCache(cacheDir),
		Email:      g.cfg.ACMEEmail,
	}

	// HTTP server for ACME challenge and redirect
	httpServer := &http.Server{
		Addr:    ":80",
		Handler: httpRedirectHandler(certManager),
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			g.logger.ComponentError(logging.ComponentGateway, "HTTP server error", zap.Error(err))
		}
	}()

	httpsServer := &http.Server{
		Addr:    g.cfg.ListenAddr,
		Handler: g.Routes(),
		TLSConfig: &tls.Config{
			MinVersion:     tls.VersionTLS12,
			GetCertificate: certManager.GetCertificate,
		},
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.ComponentInfo(logging.ComponentGateway, "HTTPS server starting",
			zap.String("addr", g.cfg.ListenAddr),
			zap.String("domain", g.cfg.DomainName))
		if err := httpsServer.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		_ = shutdown(httpServer)
		return err
	case <-ctx.Done():
		err := shutdown(httpsServer)
		if herr := shutdown(httpServer); err == nil {
			err = herr
		}
		return err
	}
}

func httpRedirectHandler(certManager *autocert.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/.well-known/acme-challenge/") {
			certManager.HTTPHandler(nil).ServeHTTP(w, r)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+r.URL.RequestURI(), http.StatusMovedPermanently)
	})
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
