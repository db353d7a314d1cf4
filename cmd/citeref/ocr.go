// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citeref/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr <file>",
	Short: "Extract text from an image or PDF",
	Long: `OCR reads text from an image through the vision provider chain. PDFs with
a text layer are read directly without calling any provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

func init() {
	ocrCmd.Flags().Bool("summary", false, "also print a short AI summary")
	ocrCmd.Flags().Bool("json", false, "output the full result as JSON")

	rootCmd.AddCommand(ocrCmd)
}

func runOCR(cmd *cobra.Command, args []string) error {
	summary, _ := cmd.Flags().GetBool("summary")
	asJSON, _ := cmd.Flags().GetBool("json")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	dataURL := "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)

	res, err := newApp(cfg, logger).ocr.Extract(cmd.Context(), ocr.Request{Image: dataURL, IncludeSummary: summary})
	if err != nil {
		var oe *ocr.Error
		if errors.As(err, &oe) {
			for _, e := range oe.Errors {
				fmt.Fprintln(os.Stderr, "  ", e)
			}
		}
		return err
	}

	if asJSON {
		return writeOutput(os.Stdout, formatJSON, res, nil)
	}
	fmt.Fprintf(os.Stderr, "Extracted by %s\n", res.Provider)
	fmt.Println(res.OCRText)
	if res.AISummary != "" {
		fmt.Println()
		fmt.Println("Summary:", res.AISummary)
	}
	return nil
}
