// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes citation resolution, AI assistance, and OCR over
// JSON HTTP endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/citeref/internal/ai"
	"github.com/pdiddy/citeref/internal/billing"
	"github.com/pdiddy/citeref/internal/detect"
	"github.com/pdiddy/citeref/internal/ocr"
	"github.com/pdiddy/citeref/internal/resolve"
	"github.com/pdiddy/citeref/pkg/types"
)

const defaultMaxRequestBytes = 15 << 20

// Resolver resolves citations and videos. *resolve.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, req resolve.Request) (*resolve.Result, error)
	ResolveVideo(ctx context.Context, rawURL string) (*types.VideoData, error)
}

// Assistant is the AI surface used by the chat and tag endpoints.
// *ai.Service implements it.
type Assistant interface {
	Chat(ctx context.Context, message, chatContext, customKey string) ai.Result
	Tags(ctx context.Context, text string) ([]string, ai.Result)
	Configured() map[string]bool
}

// Extractor runs OCR. *ocr.Service implements it.
type Extractor interface {
	Extract(ctx context.Context, req ocr.Request) (*ocr.Result, error)
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Resolver  Resolver
	Assistant Assistant
	OCR       Extractor

	// Oracle gates the chat endpoint. Nil admits everyone.
	Oracle billing.Oracle
}

// Options configures a Server.
type Options struct {
	Version         string
	MaxRequestBytes int64

	// RequestTimeout cancels each POST handler's context. Zero disables it.
	RequestTimeout time.Duration

	Logger *zap.Logger
}

// Server is the HTTP API.
type Server struct {
	deps     Deps
	version  string
	maxBytes int64
	timeout  time.Duration
	logger   *zap.Logger
	mux      *http.ServeMux
}

// New builds a Server and registers its routes.
func New(deps Deps, opts Options) *Server {
	if deps.Oracle == nil {
		deps.Oracle = billing.OpenOracle{}
	}
	s := &Server{
		deps:     deps,
		version:  opts.Version,
		maxBytes: opts.MaxRequestBytes,
		timeout:  opts.RequestTimeout,
		logger:   opts.Logger,
		mux:      http.NewServeMux(),
	}
	if s.maxBytes <= 0 {
		s.maxBytes = defaultMaxRequestBytes
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.post(detect.PathDetect, s.handleDetect)
	s.post(detect.PathExtract, s.handleExtract)
	s.post(detect.PathYouTube, s.handleYouTube)
	s.post(detect.PathChat, s.handleChat)
	s.post(detect.PathTags, s.handleTags)
	s.post(detect.PathOCR, s.handleOCR)

	s.get(detect.PathHealth, http.HandlerFunc(s.handleHealth))
	s.get(detect.PathMetrics, promhttp.Handler())
}

func (s *Server) post(path string, h http.HandlerFunc) {
	s.mux.Handle(path, s.instrument(path, cors(allowMethod(http.MethodPost, withDeadline(s.timeout, h)))))
}

func (s *Server) get(path string, h http.Handler) {
	s.mux.Handle(path, s.instrument(path, allowMethod(http.MethodGet, h)))
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, cfg types.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", cfg.Addr), zap.String("version", s.version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
