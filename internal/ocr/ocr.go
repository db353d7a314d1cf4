// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr extracts text from an uploaded image or PDF. PDFs with a text
// layer are read directly; images go through the vision provider chain.
package ocr

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/citeref/internal/ai"
)

// ProviderPDFText is reported when text came from a PDF text layer.
const ProviderPDFText = "pdf_text_layer"

// Engine is the AI surface OCR needs. *ai.Service implements it.
type Engine interface {
	OCR(ctx context.Context, img *ai.Image) ai.Result
	Summarize(ctx context.Context, text string) ai.Result
}

// Request is one OCR request.
type Request struct {
	// Image is a base64 data URL (or bare base64) holding an image or PDF.
	Image string

	// IncludeSummary asks for a short summary of the extracted text.
	IncludeSummary bool
}

// Result is the extracted text and optional summary.
type Result struct {
	Success   bool     `json:"success"`
	OCRText   string   `json:"ocrText"`
	AISummary string   `json:"aiSummary"`
	Provider  string   `json:"provider,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// Error is an OCR failure with the HTTP status it maps to. Errors lists the
// per-provider failures when the vision chain was exhausted.
type Error struct {
	Status  int
	Message string
	Errors  []string
}

func (e *Error) Error() string { return e.Message }

// Service runs OCR requests.
type Service struct {
	engine Engine
	logger *zap.Logger
}

// NewService returns a Service. A nil logger is replaced with a no-op logger.
func NewService(engine Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: engine, logger: logger}
}

// Extract decodes req.Image and returns its text. A failed summary does not
// fail the request; AISummary is left empty.
func (s *Service) Extract(ctx context.Context, req Request) (*Result, error) {
	if req.Image == "" {
		return nil, &Error{Status: http.StatusBadRequest, Message: "No image provided"}
	}
	img, err := DecodeDataURL(req.Image)
	if err != nil {
		return nil, &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf("Invalid image data: %v", err)}
	}

	res, err := s.extractText(ctx, img)
	if err != nil {
		return nil, err
	}

	if req.IncludeSummary {
		sum := s.engine.Summarize(ctx, res.OCRText)
		if sum.Success {
			res.AISummary = sum.Output
		} else {
			s.logger.Warn("ocr summary failed", zap.Strings("errors", sum.Errors))
		}
	}
	return res, nil
}

func (s *Service) extractText(ctx context.Context, img *ai.Image) (*Result, error) {
	if img.MIMEType == mimePDF {
		text, err := pdfText(img.Data)
		if err != nil {
			return nil, &Error{Status: http.StatusUnprocessableEntity, Message: fmt.Sprintf("Could not read PDF: %v", err)}
		}
		if len([]rune(text)) < minPDFText {
			return nil, &Error{
				Status:  http.StatusUnprocessableEntity,
				Message: "This PDF has no text layer. Upload an image of the page instead.",
			}
		}
		s.logger.Debug("ocr served from pdf text layer", zap.Int("chars", len(text)))
		return &Result{Success: true, OCRText: text, Provider: ProviderPDFText}, nil
	}

	out := s.engine.OCR(ctx, img)
	if !out.Success {
		msg := "Text extraction failed"
		if err := out.Err(); err != nil {
			msg = fmt.Sprintf("Text extraction failed: %v", err)
		}
		return nil, &Error{Status: http.StatusUnprocessableEntity, Message: msg, Errors: out.Errors}
	}
	return &Result{Success: true, OCRText: out.Output, Provider: out.Provider}, nil
}
