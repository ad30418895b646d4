package commands

import (
	"context"
	"errors"
	"reflect"

	"github.com/openfroyo/strata/pkg/config"
	"github.com/openfroyo/strata/pkg/telemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	var (
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch <source>...",
		Short: "Watch settings documents and reload on change",
		Long: `Watch settings documents and rebuild the layer graph whenever a source
file changes. Each reload reports the resolved layer count; a broken edit
keeps the previous graph and reports the errors instead.`,
		Example: `  # Watch a document and reload on edit
  strata watch settings.cue

  # Watch with a Prometheus metrics endpoint
  strata watch settings.cue --metrics :9090`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tel, err := setupTelemetry(metricsAddr)
			if err != nil {
				return err
			}
			defer tel.Shutdown(context.Background())
			ctx := tel.WithContext(cmd.Context())

			// Surface warning-and-above events alongside the reload log.
			tel.Events.Subscribe(func(e telemetry.Event) {
				log.Info().
					Str("type", e.Type).
					Str("layer", e.Layer).
					Str("setting", e.Setting).
					Msg(e.Message)
			}, telemetry.FilterByLevel(telemetry.EventLevelWarning))

			log.Info().
				Strs("sources", args).
				Msg("Watching settings documents")

			watcher := config.NewWatcher(config.NewParser(), args)
			format := sourceFormat(args)

			var previous *config.Graph
			err = watcher.Watch(ctx, func(graph *config.Graph, err error) {
				// Record the reload as a document load so it shows up in
				// spans and load metrics alongside one-shot commands.
				loadErr := err
				_ = telemetry.RecordDocumentLoad(ctx, args[0], format, args, func() error {
					return loadErr
				})

				if err != nil {
					tel.Metrics.RecordWatchReload("error")
					_ = tel.Events.PublishReloadFailed(args[0], err.Error())
					log.Error().Err(err).Msg("Reload failed, keeping previous graph")
					return
				}

				tel.Metrics.RecordWatchReload("success")
				tel.Metrics.SetGraphSize(len(graph.Order), graph.Schema.Len())
				_ = tel.Events.PublishGraphBuilt(args[0], len(graph.Order), graph.Schema.Len())

				logReloadDiff(previous, graph)
				previous = graph

				log.Info().
					Int("layers", len(graph.Order)).
					Int("settings", graph.Schema.Len()).
					Msg("Graph rebuilt")
			})

			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "expose Prometheus metrics on this address")

	return cmd
}

// logReloadDiff reports layers whose resolved values changed between reloads.
func logReloadDiff(previous, current *config.Graph) {
	if previous == nil {
		return
	}

	for _, name := range current.Order {
		node, _ := current.Layer(name)
		before, ok := previous.Layer(name)
		if !ok {
			log.Info().Str("layer", name).Msg("Layer added")
			continue
		}

		oldValues := before.ResolveAll()
		for setting, value := range node.ResolveAll() {
			if old, ok := oldValues[setting]; !ok || !reflect.DeepEqual(old, value) {
				log.Info().
					Str("layer", name).
					Str("setting", setting).
					Interface("value", value).
					Msg("Resolved value changed")
			}
		}
	}

	for _, name := range previous.Order {
		if _, ok := current.Layer(name); !ok {
			log.Info().Str("layer", name).Msg("Layer removed")
		}
	}
}
