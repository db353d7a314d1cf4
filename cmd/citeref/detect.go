// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citeref/internal/detect"
	"github.com/pdiddy/citeref/pkg/types"
)

var detectCmd = &cobra.Command{
	Use:   "detect <input>",
	Short: "Classify an identifier as ISBN, DOI, PubMed ID, YouTube link, or URL",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().String("format", formatJSON, "output format: json or yaml")

	rootCmd.AddCommand(detectCmd)
}

type detectOutput struct {
	Detection types.Detection `json:"detection" yaml:"detection"`
	Endpoint  string          `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	det := detect.Classify(strings.Join(args, " "))
	out := detectOutput{Detection: det, Endpoint: detect.Endpoints()[det.Type]}
	return writeOutput(os.Stdout, format, out, nil)
}
