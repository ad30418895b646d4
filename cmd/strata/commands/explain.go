package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/openfroyo/strata/pkg/inherit"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newExplainCommand() *cobra.Command {
	var (
		layerName string
	)

	cmd := &cobra.Command{
		Use:   "explain <source>... --layer <layer> [setting]",
		Short: "Explain where resolved values come from",
		Long: `Explain which layer (or default) supplies each resolved setting.

For every setting the output names the origin:
  self       the layer holds its own explicit value
  inherited  an ancestor supplied the value, with its name and distance
  default    no layer in the chain spoke and the declared default applied`,
		Example: `  # Explain every setting on a layer
  strata explain settings.cue --layer profile

  # Explain a single setting
  strata explain settings.cue --layer profile fontSize`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if layerName == "" {
				return fmt.Errorf("--layer is required")
			}

			// Trailing non-file argument is the setting name when it does
			// not resolve to an existing path.
			sources := args
			settingName := ""
			if len(args) > 1 {
				last := args[len(args)-1]
				if _, err := os.Stat(last); err != nil {
					sources = args[:len(args)-1]
					settingName = last
				}
			}

			ctx, shutdown, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			log.Debug().
				Strs("sources", sources).
				Str("layer", layerName).
				Str("setting", settingName).
				Msg("Explaining resolution")

			graph, err := loadGraph(ctx, sources)
			if err != nil {
				return err
			}

			node, ok := graph.Layer(layerName)
			if !ok {
				return fmt.Errorf("unknown layer: %s", layerName)
			}

			settings := graph.Schema.Names()
			if settingName != "" {
				settings = []string{settingName}
			}

			resolutions := make([]inherit.Resolution, 0, len(settings))
			for _, s := range settings {
				res, err := resolveSetting(ctx, node, layerName, s)
				if err != nil {
					return fmt.Errorf("failed to explain %s: %w", s, err)
				}
				resolutions = append(resolutions, res)
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(resolutions)
			}

			for _, res := range resolutions {
				value := fmt.Sprintf("%v", res.Value)
				if res.Null {
					value = "null"
				}
				switch res.Origin {
				case inherit.OriginSelf:
					fmt.Printf("%s = %s (self)\n", res.Setting, value)
				case inherit.OriginInherited:
					fmt.Printf("%s = %s (inherited from %s, depth %d)\n",
						res.Setting, value, res.SourceName, res.Depth)
				default:
					fmt.Printf("%s = %s (default)\n", res.Setting, value)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&layerName, "layer", "l", "", "layer to explain (required)")

	return cmd
}
