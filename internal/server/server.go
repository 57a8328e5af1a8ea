// Package server runs cspHTTP in front of a site: every HTML response
// passing through gets a Content-Security-Policy derived from its body.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cspHTTP/internal/config"
	"cspHTTP/internal/header"
	"cspHTTP/internal/policy"
	"cspHTTP/internal/shield"
)

const shutdownTimeout = 10 * time.Second

// Server serves an upstream site or a directory with derived policies.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	assembler *policy.Assembler
	limiter   *shield.RateLimiter
	transport http.RoundTripper
	router    chi.Router
}

// New builds the handler chain for cfg. Exactly one of cfg.Upstream and
// cfg.RootDir must be set.
func New(cfg *config.Config, a *policy.Assembler) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		logger:    cfg.Logger,
		assembler: a,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	var content http.Handler
	switch {
	case cfg.Upstream != "":
		target, err := url.Parse(cfg.Upstream)
		if err != nil {
			return nil, fmt.Errorf("invalid upstream: %w", err)
		}
		if (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
			return nil, fmt.Errorf("invalid upstream %q: need http(s)://host", cfg.Upstream)
		}
		s.transport = NewTransport(cfg.InsecureSkipVerify, cfg.HTTP3, time.Duration(cfg.Timeout)*time.Second)
		content = s.proxy(target)
	case cfg.RootDir != "":
		content = http.FileServer(http.Dir(cfg.RootDir))
	default:
		return nil, errors.New("no upstream or root directory configured")
	}

	if cfg.RateLimit > 0 {
		limit := shield.DefaultRateLimit()
		limit.Rate = float64(cfg.RateLimit) / 60
		limit.Burst = cfg.Burst
		s.limiter = shield.NewRateLimiter(limit, s.logger)
	}

	s.router = s.routes(content)
	return s, nil
}

func (s *Server) routes(content http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok\n")
	})

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		if s.cfg.HSTS {
			r.Use(shield.HSTS(s.cfg.HSTSMaxAge))
		}
		if s.cfg.Permissions {
			r.Use(shield.Permissions(s.cfg.Settings.Headers.PermissionsPolicy))
		}
		if site := s.cfg.Settings.SiteURL; site != "" {
			r.Use(shield.CORS(shield.CORSConfig{
				SiteURL:         site,
				AllowSubdomains: s.cfg.Settings.CORS.AllowSubdomains,
				Origins:         s.cfg.Settings.CORS.Origins,
			}))
		}
		r.Use(header.Middleware(s.assembler, s.logger))
		r.Handle("/*", content)
	})

	return r
}

// proxy forwards requests to target. Accept-Encoding is dropped so HTML
// bodies arrive uncompressed and can be inspected.
func (s *Server) proxy(target *url.URL) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Header.Del("Accept-Encoding")
		},
		Transport: s.transport,
		ModifyResponse: func(resp *http.Response) error {
			if v := resp.Header.Get(policy.HeaderName); v != "" {
				s.logger.Debug("upstream policy kept",
					"path", resp.Request.URL.Path,
					"domains", policy.Domains(policy.ParseHeader(v)),
				)
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Warn("upstream request failed",
				"path", r.URL.Path,
				"error", err,
			)
			w.WriteHeader(http.StatusBadGateway)
		},
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.Debug("request served",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"time", time.Since(start).String(),
		)
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)
	if s.limiter != nil {
		s.limiter.StartSweeper(time.Minute, done)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Close releases the upstream transport.
func (s *Server) Close() error {
	if c, ok := s.transport.(io.Closer); ok {
		return c.Close()
	}
	if t, ok := s.transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	return nil
}
