package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/openfroyo/strata/pkg/config"
	"github.com/openfroyo/strata/pkg/inherit"
	"github.com/openfroyo/strata/pkg/telemetry"
	"github.com/spf13/cobra"
)

// setupTelemetry builds the telemetry stack shared by commands. Tracing is
// enabled by the --trace flag (stdout exporter), metrics by a non-empty
// listen address.
func setupTelemetry(metricsAddr string) (*telemetry.Telemetry, error) {
	cfg := telemetry.DefaultConfig()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if traceEnabled {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Exporter = "stdout"
	}
	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddress = metricsAddr
	}

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	if err := tel.StartMetricsServer(); err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}
	return tel, nil
}

// sourceFormat labels a set of sources for load spans and metrics.
func sourceFormat(sources []string) string {
	var hasCUE, hasYAML bool
	for _, s := range sources {
		switch strings.ToLower(filepath.Ext(s)) {
		case ".yaml", ".yml":
			hasYAML = true
		default:
			hasCUE = true
		}
	}
	switch {
	case hasCUE && hasYAML:
		return "mixed"
	case hasYAML:
		return "yaml"
	default:
		return "cue"
	}
}

// loadGraph parses the given sources and builds the layer graph, recording
// the load as an instrumented operation.
func loadGraph(ctx context.Context, sources []string) (*config.Graph, error) {
	var graph *config.Graph
	err := telemetry.RecordDocumentLoad(ctx, sources[0], sourceFormat(sources), sources, func() error {
		doc, err := config.NewParser().Parse(ctx, sources)
		if err != nil {
			return fmt.Errorf("failed to parse sources: %w", err)
		}
		if len(doc.Errors) > 0 {
			reportValidationErrors(doc.Errors)
			return fmt.Errorf("document has %d error(s)", len(doc.Errors))
		}

		graph, err = config.BuildGraph(doc)
		if err != nil {
			return fmt.Errorf("failed to build layer graph: %w", err)
		}
		return nil
	})
	return graph, err
}

// resolveSetting resolves one setting on a layer node, recording the
// resolution origin and chain depth.
func resolveSetting(ctx context.Context, node *inherit.Node, layer, setting string) (inherit.Resolution, error) {
	var res inherit.Resolution
	err := telemetry.RecordResolution(ctx, layer, setting, func() (string, int, error) {
		r, err := node.Explain(setting)
		if err != nil {
			return "", 0, err
		}
		res = r
		return string(r.Origin), r.Depth, nil
	})
	return res, err
}

// commandContext sets up telemetry for a command and returns a context
// carrying it, plus a shutdown func for deferring.
func commandContext(cmd *cobra.Command) (context.Context, func(), error) {
	tel, err := setupTelemetry("")
	if err != nil {
		return nil, nil, err
	}
	ctx := tel.WithContext(cmd.Context())
	return ctx, func() { _ = tel.Shutdown(context.Background()) }, nil
}
