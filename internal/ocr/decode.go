// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/citeref/internal/ai"
)

const mimePDF = "application/pdf"

// minPDFText is the shortest text layer, in runes, accepted as real text.
const minPDFText = 20

// maxPDFPages caps how many PDF pages are read.
const maxPDFPages = 50

var errNotImage = errors.New("not an image or PDF")

// DecodeDataURL decodes "data:<mime>;base64,<payload>" or bare base64. The
// MIME type is sniffed when absent or generic. Only images and PDFs are
// accepted.
func DecodeDataURL(s string) (*ai.Image, error) {
	s = strings.TrimSpace(s)
	mime, payload := "", s
	if strings.HasPrefix(s, "data:") {
		header, data, ok := strings.Cut(s[len("data:"):], ",")
		if !ok {
			return nil, errors.New("malformed data URL")
		}
		if !strings.HasSuffix(header, ";base64") {
			return nil, errors.New("data URL is not base64")
		}
		mime, payload = strings.TrimSuffix(header, ";base64"), data
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, fmt.Errorf("decoding base64: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}

	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
		if i := strings.Index(mime, ";"); i >= 0 {
			mime = mime[:i]
		}
	}
	if mime != mimePDF && !strings.HasPrefix(mime, "image/") {
		return nil, errNotImage
	}
	return &ai.Image{MIMEType: mime, Data: data}, nil
}

// pdfText returns the plain text of the first pages of a PDF. The PDF
// reader panics on some malformed files; that is reported as an error.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", p)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	pages := min(r.NumPage(), maxPDFPages)
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}
