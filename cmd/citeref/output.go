// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citeref/internal/csl"
)

// Output formats accepted by --format.
const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatCSL  = "csl"
)

// writeOutput renders v in format. toCSL is used for the csl format and may
// be nil when the command has no CSL form.
func writeOutput(w io.Writer, format string, v any, toCSL func() csl.Item) error {
	switch format {
	case "", formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	case formatCSL:
		if toCSL == nil {
			return fmt.Errorf("--format csl is not supported by this command")
		}
		return csl.Write(w, toCSL())
	}
	return fmt.Errorf("unknown format %q (want json, yaml, or csl)", format)
}

// printSuggestion writes a remediation hint to stderr.
func printSuggestion(s string) {
	if s != "" {
		fmt.Fprintln(os.Stderr, "suggestion:", s)
	}
}
