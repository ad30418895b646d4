package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/openfroyo/strata/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <source>...",
		Short: "Validate settings documents",
		Long: `Validate settings documents against the document schema.

This command checks:
  - CUE and YAML syntax validity
  - Setting declarations (kind, type, defaults)
  - Layer references and parent links
  - Acyclicity of the layer graph`,
		Example: `  # Validate a single document
  strata validate settings.cue

  # Validate a directory of CUE files plus a YAML overlay
  strata validate ./settings ./overrides.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info().
				Strs("sources", args).
				Msg("Validating settings documents")

			parser := config.NewParser()
			doc, err := parser.Parse(cmd.Context(), args)
			if err != nil {
				return fmt.Errorf("failed to parse sources: %w", err)
			}

			if len(doc.Errors) > 0 {
				reportValidationErrors(doc.Errors)
				return fmt.Errorf("validation failed with %d error(s)", len(doc.Errors))
			}

			// A syntactically valid document can still describe a broken
			// graph (unknown parents, cycles, mistyped values).
			if _, err := config.BuildGraph(doc); err != nil {
				return fmt.Errorf("document is not resolvable: %w", err)
			}

			if jsonOutput {
				out := map[string]any{
					"valid":    true,
					"settings": len(doc.Settings),
					"layers":   len(doc.Layers),
					"sources":  doc.SourceFiles,
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Printf("✓ Valid: %d setting(s), %d layer(s) from %d source file(s)\n",
				len(doc.Settings), len(doc.Layers), len(doc.SourceFiles))

			return nil
		},
	}

	return cmd
}

func reportValidationErrors(errs []config.ValidationError) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(errs)
		return
	}

	for _, e := range errs {
		loc := e.File
		if e.Line > 0 {
			loc = fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
		}
		if loc != "" {
			fmt.Fprintf(os.Stderr, "%s: %s: %s\n", e.Severity, loc, e.Message)
		} else {
			fmt.Fprintf(os.Stderr, "%s: %s\n", e.Severity, e.Message)
		}
	}
}
