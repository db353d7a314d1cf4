// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citeref/internal/ai"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D}

// fakeEngine scripts the AI chain: a nil provider list means no keys.
type fakeEngine struct {
	ocr       []ai.Provider
	summary   []ai.Provider
	ocrImages []*ai.Image
}

func (f *fakeEngine) OCR(ctx context.Context, img *ai.Image) ai.Result {
	f.ocrImages = append(f.ocrImages, img)
	return ai.InvokeWithFallback(ctx, f.ocr, ai.Request{Image: img})
}

func (f *fakeEngine) Summarize(ctx context.Context, text string) ai.Result {
	return ai.InvokeWithFallback(ctx, f.summary, ai.Request{Prompt: text})
}

type stubProvider struct {
	name string
	out  string
	err  error
}

func (s stubProvider) Name() string    { return s.name }
func (s stubProvider) Available() bool { return true }
func (s stubProvider) Generate(context.Context, ai.Request) (string, error) {
	return s.out, s.err
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestExtractImage(t *testing.T) {
	engine := &fakeEngine{
		ocr: []ai.Provider{
			stubProvider{name: "OpenRouter", err: errors.New("HTTP 502")},
			stubProvider{name: "Gemini", out: "Row 1 | 42"},
		},
		summary: []ai.Provider{stubProvider{name: "Groq", out: "A table."}},
	}
	svc := NewService(engine, nil)

	res, err := svc.Extract(context.Background(), Request{Image: dataURL("image/png", pngHeader), IncludeSummary: true})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Row 1 | 42", res.OCRText)
	assert.Equal(t, "Gemini", res.Provider)
	assert.Equal(t, "A table.", res.AISummary)
	require.Len(t, engine.ocrImages, 1)
	assert.Equal(t, "image/png", engine.ocrImages[0].MIMEType)
}

func TestExtractSummaryFailureIsNotFatal(t *testing.T) {
	engine := &fakeEngine{ocr: []ai.Provider{stubProvider{name: "Claude", out: "text"}}}
	svc := NewService(engine, nil)

	res, err := svc.Extract(context.Background(), Request{Image: dataURL("image/jpeg", []byte("jpegdata")), IncludeSummary: true})

	require.NoError(t, err)
	assert.Equal(t, "text", res.OCRText)
	assert.Empty(t, res.AISummary)
}

func TestExtractChainExhausted(t *testing.T) {
	engine := &fakeEngine{ocr: []ai.Provider{
		stubProvider{name: "OpenRouter", err: errors.New("boom")},
		stubProvider{name: "Claude", out: " "},
	}}
	svc := NewService(engine, nil)

	_, err := svc.Extract(context.Background(), Request{Image: dataURL("image/png", pngHeader)})

	var oerr *Error
	require.True(t, errors.As(err, &oerr))
	assert.Equal(t, http.StatusUnprocessableEntity, oerr.Status)
	assert.Equal(t, []string{"OpenRouter: boom", "Claude: empty response"}, oerr.Errors)
}

func TestExtractNoKeys(t *testing.T) {
	svc := NewService(&fakeEngine{}, nil)

	_, err := svc.Extract(context.Background(), Request{Image: dataURL("image/png", pngHeader)})

	var oerr *Error
	require.True(t, errors.As(err, &oerr))
	assert.Equal(t, http.StatusUnprocessableEntity, oerr.Status)
	assert.Contains(t, oerr.Message, "No API keys configured")
}

func TestExtractBadInput(t *testing.T) {
	svc := NewService(&fakeEngine{}, nil)
	tests := []struct {
		name  string
		image string
	}{
		{"missing", ""},
		{"not base64", "data:image/png;base64,@@@"},
		{"not an image", dataURL("text/plain", []byte("hello"))},
		{"malformed data url", "data:image/png;base64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Extract(context.Background(), Request{Image: tt.image})
			var oerr *Error
			require.True(t, errors.As(err, &oerr))
			assert.Equal(t, http.StatusBadRequest, oerr.Status)
		})
	}
}

func TestExtractPDFWithoutTextLayer(t *testing.T) {
	svc := NewService(&fakeEngine{}, nil)

	_, err := svc.Extract(context.Background(), Request{Image: dataURL("application/pdf", []byte("%PDF-1.4 not really a pdf"))})

	var oerr *Error
	require.True(t, errors.As(err, &oerr))
	assert.Equal(t, http.StatusUnprocessableEntity, oerr.Status)
}

func TestDecodeDataURL(t *testing.T) {
	img, err := DecodeDataURL(dataURL("image/webp", []byte("webp")))
	require.NoError(t, err)
	assert.Equal(t, "image/webp", img.MIMEType)
	assert.Equal(t, []byte("webp"), img.Data)

	img, err = DecodeDataURL(base64.StdEncoding.EncodeToString(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	img, err = DecodeDataURL(dataURL("application/octet-stream", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
}
