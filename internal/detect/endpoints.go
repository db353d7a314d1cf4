// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import "github.com/pdiddy/citeref/pkg/types"

// Endpoint paths served by the HTTP API.
const (
	PathDetect  = "/api/detect-citation-type"
	PathExtract = "/api/extract-citation"
	PathYouTube = "/api/youtube-citation"
	PathChat    = "/api/chat"
	PathTags    = "/api/generate-tags"
	PathOCR     = "/api/ocr"
	PathHealth  = "/health"
	PathMetrics = "/metrics"
)

// Endpoints maps each citation type to the endpoint that resolves it.
func Endpoints() map[types.CitationType]string {
	return map[types.CitationType]string{
		types.TypeISBN:    PathExtract,
		types.TypeDOI:     PathExtract,
		types.TypePMID:    PathExtract,
		types.TypeURL:     PathExtract,
		types.TypeYouTube: PathYouTube,
	}
}
