// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citeref/internal/csl"
	"github.com/pdiddy/citeref/internal/resolve"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <doi|isbn|pmid|url>",
	Short: "Resolve an identifier or URL into citation metadata",
	Long: `Resolve runs the citation pipeline: academic databases by DOI (and the
IEEE, ScienceDirect, and PubMed lookups for their URLs), then the page's own
metadata, then a title search. With --ai, configured AI providers fill the
fields still missing and guess from the URL when the page cannot be fetched.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().Bool("ai", false, "allow AI providers to fill gaps")
	resolveCmd.Flags().String("format", formatJSON, "output format: json, yaml, or csl")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	useAI, _ := cmd.Flags().GetBool("ai")
	format, _ := cmd.Flags().GetString("format")

	a := newApp(cfg, logger)
	if useAI && !a.ai.Available() {
		fmt.Fprintln(os.Stderr, "warning: --ai set but no AI provider keys are configured")
	}

	res, err := a.resolver.Resolve(cmd.Context(), resolve.Request{
		Input: strings.TrimSpace(args[0]),
		UseAI: useAI,
	})
	if err != nil {
		var re *resolve.Error
		if errors.As(err, &re) {
			printSuggestion(re.Suggestion)
		}
		return err
	}

	fmt.Fprintf(os.Stderr, "%s (source: %s)\n", res.Message, res.Source)
	printSuggestion(res.Suggestion)
	return writeOutput(os.Stdout, format, res, func() csl.Item { return csl.FromResult(res) })
}
