// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags [text]",
	Short: "Generate topic tags for a passage of text",
	Long: `Tags asks the text provider chain for three to five short topic tags.
With no argument, or "-", the text is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTags,
}

func init() {
	tagsCmd.Flags().Bool("json", false, "output tags and provider as JSON")

	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	text, err := argOrStdin(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text provided")
	}

	tags, res := newApp(cfg, logger).ai.Tags(cmd.Context(), text)
	if !res.Success {
		for _, e := range res.Errors {
			fmt.Fprintln(os.Stderr, "  ", e)
		}
		return fmt.Errorf("tag generation failed: %w", res.Err())
	}

	if asJSON {
		return writeOutput(os.Stdout, formatJSON, map[string]any{"tags": tags, "provider": res.Provider}, nil)
	}
	for _, t := range tags {
		fmt.Println(t)
	}
	return nil
}

func argOrStdin(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}
