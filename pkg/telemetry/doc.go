// Package telemetry provides observability instrumentation for Strata.
//
// The telemetry package integrates structured logging (zerolog), tracing
// (OpenTelemetry), metrics (Prometheus), and event publishing into a unified
// system for monitoring and debugging settings resolution.
//
// # Architecture
//
// The telemetry system is built on four pillars:
//
//  1. Structured Logging - Context-aware logging with zerolog
//  2. Tracing - OpenTelemetry traces for loads and resolutions
//  3. Metrics Collection - Prometheus metrics for operational insights
//  4. Event Publishing - Event system for settings-change notifications
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceName = "strata"
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// Add telemetry to context so instrumented operations can find it:
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// The logger provides component-specific logging with settings-domain fields:
//
//	logger := tel.Logger.NewComponentLogger("graph")
//	logger = logger.WithLayer("profile").WithSetting("fontSize")
//	logger.Info("resolved from parent chain")
//	logger.WithError(err).Error("resolution failed")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// # Metrics
//
// Metrics cover resolutions by origin, parent-chain depth, setting writes and
// clears, document loads, and watch reloads. Enable the HTTP endpoint with:
//
//	tel.StartMetricsServer()
//
// # Events
//
// The event publisher delivers settings-change notifications to subscribers.
// Pair it with a node's change callback to observe individual layers:
//
//	node.OnChange(func(setting string) {
//	    tel.Events.PublishSettingChanged(node.Name(), setting)
//	})
package telemetry
