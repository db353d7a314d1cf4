// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citeref/internal/csl"
	"github.com/pdiddy/citeref/internal/resolve"
)

var videoCmd = &cobra.Command{
	Use:   "video <youtube-url>",
	Short: "Fetch citation details for a YouTube video",
	Long: `Video reads the YouTube Data API when a key is configured and oEmbed
otherwise. oEmbed carries no publish date; when an AI key is configured the
missing date and description are inferred.`,
	Args: cobra.ExactArgs(1),
	RunE: runVideo,
}

func init() {
	videoCmd.Flags().String("format", formatJSON, "output format: json, yaml, or csl")

	rootCmd.AddCommand(videoCmd)
}

func runVideo(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	v, err := newApp(cfg, logger).resolver.ResolveVideo(cmd.Context(), args[0])
	if err != nil {
		var re *resolve.Error
		if errors.As(err, &re) {
			printSuggestion(re.Suggestion)
		}
		return err
	}
	return writeOutput(os.Stdout, format, v, func() csl.Item { return csl.FromVideo(*v, time.Now()) })
}
