// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"go.uber.org/zap"

	"github.com/pdiddy/citeref/internal/ai"
	"github.com/pdiddy/citeref/internal/httputil"
	"github.com/pdiddy/citeref/internal/lookup"
	"github.com/pdiddy/citeref/internal/ocr"
	"github.com/pdiddy/citeref/internal/resolve"
	"github.com/pdiddy/citeref/internal/scrape"
	"github.com/pdiddy/citeref/pkg/types"
)

// app wires the services every command shares.
type app struct {
	ai       *ai.Service
	resolver *resolve.Resolver
	ocr      *ocr.Service
}

func newApp(cfg types.Config, logger *zap.Logger) *app {
	aiClient := httputil.NewClient(types.HTTPConfig{Timeout: cfg.AI.Timeout}, 0)
	aiSvc := ai.NewService(cfg.AI, aiClient, logger.Named("ai"))

	resolver := resolve.New(
		lookup.New(cfg.HTTP, cfg.Lookup, logger),
		scrape.NewFetcher(cfg.HTTP, cfg.Scrape, logger.Named("scrape")),
		aiSvc,
		resolve.Options{
			YouTubeKeys: cfg.Lookup.YouTubeAPIKeys,
			Logger:      logger.Named("resolve"),
		},
	)

	return &app{
		ai:       aiSvc,
		resolver: resolver,
		ocr:      ocr.NewService(aiSvc, logger.Named("ocr")),
	}
}
