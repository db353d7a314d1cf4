// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/citeref/internal/billing"
	"github.com/pdiddy/citeref/internal/server"
	"github.com/pdiddy/citeref/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON HTTP API",
	Long: `Serve exposes citation detection, extraction, YouTube lookup, chat, tag
generation, and OCR as JSON endpoints, plus /health and /metrics.

When auth.jwt_secret (or JWT_SECRET) is set, the chat endpoint requires a
bearer token and free-tier users are metered in the SQLite credit ledger.
Without a secret every request is admitted with unlimited credits.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	oracle, closeOracle, err := newOracle(cfg.Auth)
	if err != nil {
		return err
	}
	defer closeOracle()

	a := newApp(cfg, logger)
	if !a.ai.Available() {
		logger.Warn("no AI provider keys configured; chat, tags, OCR, and AI enhancement are disabled")
	}

	srv := server.New(server.Deps{
		Resolver:  a.resolver,
		Assistant: a.ai,
		OCR:       a.ocr,
		Oracle:    oracle,
	}, server.Options{
		Version:         version,
		MaxRequestBytes: cfg.Server.MaxRequestBytes,
		RequestTimeout:  cfg.Server.RequestTimeout,
		Logger:          logger.Named("http"),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, cfg.Server)
}

// newOracle returns the JWT oracle backed by the credit ledger when a
// secret is configured, and the open oracle otherwise.
func newOracle(auth types.AuthConfig) (billing.Oracle, func(), error) {
	if auth.JWTSecret == "" {
		logger.Info("no JWT secret configured; chat is open with unlimited credits")
		return billing.OpenOracle{}, func() {}, nil
	}
	ledger, err := billing.OpenLedger(auth)
	if err != nil {
		return nil, nil, fmt.Errorf("opening credit ledger: %w", err)
	}
	logger.Info("credit ledger opened", zap.String("path", auth.DBPath), zap.Int("free_credits", auth.FreeCredits))
	return billing.NewJWTOracle(auth.JWTSecret, ledger, logger.Named("billing")), func() { ledger.Close() }, nil
}
