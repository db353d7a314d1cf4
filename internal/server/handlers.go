// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/citeref/internal/ai"
	"github.com/pdiddy/citeref/internal/billing"
	"github.com/pdiddy/citeref/internal/detect"
	"github.com/pdiddy/citeref/internal/ocr"
	"github.com/pdiddy/citeref/internal/resolve"
	"github.com/pdiddy/citeref/pkg/types"
)

type detectRequest struct {
	Input string `json:"input"`
}

type detectResponse struct {
	Success   bool                          `json:"success"`
	Detection types.Detection               `json:"detection"`
	Endpoints map[types.CitationType]string `json:"endpoints"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !decodeBody(w, r, s.maxBytes, &req) {
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, "Input is required", "")
		return
	}
	writeJSON(w, http.StatusOK, detectResponse{
		Success:   true,
		Detection: detect.Classify(req.Input),
		Endpoints: detect.Endpoints(),
	})
}

type extractRequest struct {
	URL   string `json:"url"`
	UseAI bool   `json:"useAI"`
}

type extractResponse struct {
	Success bool `json:"success"`
	*resolve.Result
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !decodeBody(w, r, s.maxBytes, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "URL is required", "Enter a URL, DOI, ISBN, or PubMed ID.")
		return
	}

	res, err := s.deps.Resolver.Resolve(r.Context(), resolve.Request{Input: req.URL, UseAI: req.UseAI})
	if err != nil {
		s.writeResolveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{Success: true, Result: res})
}

type youtubeRequest struct {
	URL string `json:"url"`
}

type youtubeResponse struct {
	Success bool             `json:"success"`
	Type    string           `json:"type"`
	Data    *types.VideoData `json:"data"`
}

func (s *Server) handleYouTube(w http.ResponseWriter, r *http.Request) {
	var req youtubeRequest
	if !decodeBody(w, r, s.maxBytes, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "YouTube URL is required", "")
		return
	}

	v, err := s.deps.Resolver.ResolveVideo(r.Context(), req.URL)
	if err != nil {
		s.writeResolveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, youtubeResponse{Success: true, Type: "video", Data: v})
}

func (s *Server) writeResolveError(w http.ResponseWriter, r *http.Request, err error) {
	var re *resolve.Error
	if errors.As(err, &re) {
		writeError(w, re.Status, re.Message, re.Suggestion)
		return
	}
	s.logger.Error("resolution failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal error", "")
}

type chatRequest struct {
	Message string `json:"message"`
	Context string `json:"context"`
}

type chatResponse struct {
	Response         string `json:"response"`
	CreditsRemaining int    `json:"credits_remaining"`
}

// handleChat authenticates the caller, answers through the text chain, and
// debits one credit after a successful answer the server paid for.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Oracle.Authenticate(r)
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}

	var req chatRequest
	if !decodeBody(w, r, s.maxBytes, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required", "")
		return
	}

	res := s.deps.Assistant.Chat(r.Context(), req.Message, req.Context, sess.CustomKey)
	if !res.Success {
		s.writeChainError(w, r, http.StatusInternalServerError, "All AI providers failed", res)
		return
	}

	credits := billing.Unlimited
	if chargeable(sess, res.Provider) {
		credits, err = s.deps.Oracle.DeductCredit(r.Context(), sess.UserID)
		if err != nil {
			s.writeAuthError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: res.Output, CreditsRemaining: credits})
}

// chargeable reports whether an answer from provider costs the session a
// credit. A free-tier custom key only covers answers its own provider gave;
// a fallback to a server-keyed provider is metered like any free request.
func chargeable(sess *billing.Session, provider string) bool {
	if sess.Metered() {
		return true
	}
	return sess.IsFreeTier && sess.CustomKey != "" && provider != ai.CustomKeyProvider
}

func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *billing.AuthError
	if errors.As(err, &ae) {
		writeError(w, ae.Status, ae.Message, "")
		return
	}
	s.logger.Error("authentication failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal error", "")
}

type tagsRequest struct {
	Text string `json:"text"`
}

type tagsResponse struct {
	Tags     []string `json:"tags"`
	Provider string   `json:"provider,omitempty"`
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	var req tagsRequest
	if !decodeBody(w, r, s.maxBytes, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text is required", "")
		return
	}

	tags, res := s.deps.Assistant.Tags(r.Context(), req.Text)
	if !res.Success {
		s.writeChainError(w, r, http.StatusServiceUnavailable, "Tag generation unavailable", res)
		return
	}
	writeJSON(w, http.StatusOK, tagsResponse{Tags: tags, Provider: res.Provider})
}

// writeChainError reports an exhausted provider chain. A chain with no
// configured keys reports that instead of the generic message.
func (s *Server) writeChainError(w http.ResponseWriter, r *http.Request, status int, msg string, res ai.Result) {
	if errors.Is(res.Err(), ai.ErrNoAPIKeys) {
		msg = ai.ErrNoAPIKeys.Error()
	}
	s.logger.Warn("ai chain exhausted",
		zap.String("request_id", RequestID(r.Context())),
		zap.Strings("errors", res.Errors),
	)
	writeJSON(w, status, errorBody{Error: msg, Errors: res.Errors})
}

type ocrRequest struct {
	Image          string `json:"image"`
	IncludeSummary bool   `json:"includeSummary"`
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	var req ocrRequest
	if !decodeBody(w, r, s.maxBytes, &req) {
		return
	}

	res, err := s.deps.OCR.Extract(r.Context(), ocr.Request{Image: req.Image, IncludeSummary: req.IncludeSummary})
	if err != nil {
		var oe *ocr.Error
		if errors.As(err, &oe) {
			writeJSON(w, oe.Status, errorBody{Error: oe.Message, Errors: oe.Errors})
			return
		}
		s.logger.Error("ocr failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error", "")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type healthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Providers map[string]bool `json:"providers"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Version:   s.version,
		Providers: s.deps.Assistant.Configured(),
	})
}
