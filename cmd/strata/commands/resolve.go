package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newResolveCommand() *cobra.Command {
	var (
		layerName   string
		settingName string
	)

	cmd := &cobra.Command{
		Use:   "resolve <source>...",
		Short: "Resolve effective settings for a layer",
		Long: `Resolve the effective value of every setting for a layer.

Each setting resolves to the layer's own explicit value, the first value
found in a depth-first walk of its parent chain, or the declared default.
An explicit null on a nullable setting resolves to null and stops the
walk.`,
		Example: `  # Resolve every layer in a document
  strata resolve settings.cue

  # Resolve a single layer
  strata resolve settings.cue --layer profile

  # Resolve a single setting, tracing the lookup
  strata resolve settings.cue --layer profile --setting fontSize --trace`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, shutdown, err := commandContext(cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			log.Debug().
				Strs("sources", args).
				Str("layer", layerName).
				Msg("Resolving settings")

			graph, err := loadGraph(ctx, args)
			if err != nil {
				return err
			}

			layers := graph.Order
			if layerName != "" {
				if _, ok := graph.Layer(layerName); !ok {
					return fmt.Errorf("unknown layer: %s", layerName)
				}
				layers = []string{layerName}
			}

			settings := graph.Schema.Names()
			if settingName != "" {
				settings = []string{settingName}
			}

			out := make(map[string]map[string]any, len(layers))
			for _, name := range layers {
				node, _ := graph.Layer(name)
				values := make(map[string]any, len(settings))
				for _, s := range settings {
					res, err := resolveSetting(ctx, node, name, s)
					if err != nil {
						return fmt.Errorf("failed to resolve %s on %s: %w", s, name, err)
					}
					values[s] = res.Value
				}
				out[name] = values
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			for _, name := range layers {
				fmt.Printf("%s:\n", name)
				values := out[name]
				keys := make([]string, 0, len(values))
				for s := range values {
					keys = append(keys, s)
				}
				sort.Strings(keys)
				for _, s := range keys {
					v := values[s]
					if v == nil {
						fmt.Printf("  %s = null\n", s)
					} else {
						fmt.Printf("  %s = %v\n", s, v)
					}
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&layerName, "layer", "l", "", "layer to resolve (default: all layers)")
	cmd.Flags().StringVarP(&settingName, "setting", "s", "", "single setting to resolve")

	return cmd
}
