package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestTelemetry builds a stack with tracing recording (no export) and
// metrics enabled, so instrumented operations can be observed.
func newTestTelemetry(t *testing.T) *Telemetry {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "none"
	cfg.Metrics.Enabled = true
	cfg.Metrics.ListenAddress = ":0"

	tel, err := NewTelemetry(cfg)
	if err != nil {
		t.Fatalf("failed to create telemetry: %v", err)
	}
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })
	return tel
}

func scrapeMetrics(t *testing.T, m *Metrics) string {
	t.Helper()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read metrics body: %v", err)
	}
	return string(raw)
}

func TestStartOperationWithoutTelemetry(t *testing.T) {
	ic := StartOperation(context.Background(), "graph.build")
	if ic.Span != nil {
		t.Error("expected no span without telemetry in context")
	}
	if ic.Logger == nil || ic.Timer == nil {
		t.Error("expected fallback logger and timer")
	}
	ic.End(nil) // must not panic
}

func TestStartOperationCreatesSpan(t *testing.T) {
	tel := newTestTelemetry(t)
	ctx := tel.WithContext(context.Background())

	ic := StartOperation(ctx, "graph.build")
	if ic.Span == nil || !ic.Span.SpanContext().IsValid() {
		t.Fatal("expected a valid span with telemetry in context")
	}
	ic.End(errors.New("boom")) // error path must not panic either
}

func TestRecordResolutionInstruments(t *testing.T) {
	tel := newTestTelemetry(t)
	ctx := tel.WithContext(context.Background())

	err := RecordResolution(ctx, "profile", "fontSize", func() (string, int, error) {
		return "inherited", 2, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := scrapeMetrics(t, tel.Metrics)
	if !strings.Contains(body, `strata_resolutions_total{origin="inherited"} 1`) {
		t.Error("resolution not recorded in metrics")
	}
}

func TestRecordResolutionError(t *testing.T) {
	tel := newTestTelemetry(t)
	ctx := tel.WithContext(context.Background())

	want := errors.New("cycle")
	err := RecordResolution(ctx, "profile", "fontSize", func() (string, int, error) {
		return "", 0, want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected the resolution error back, got %v", err)
	}

	body := scrapeMetrics(t, tel.Metrics)
	if !strings.Contains(body, `strata_errors_by_class_total{class="resolution"} 1`) {
		t.Error("resolution error not recorded in metrics")
	}
}

func TestRecordDocumentLoadPublishesEvent(t *testing.T) {
	tel := newTestTelemetry(t)
	ctx := tel.WithContext(context.Background())

	var got []Event
	tel.Events.Subscribe(func(e Event) { got = append(got, e) },
		FilterByType(EventTypeDocumentLoaded))

	err := RecordDocumentLoad(ctx, "terminal", "cue", []string{"settings.cue"}, func() error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 1 || got[0].Document != "terminal" {
		t.Fatalf("expected one document.loaded event for terminal, got %+v", got)
	}

	body := scrapeMetrics(t, tel.Metrics)
	if !strings.Contains(body, `strata_document_loads_total{format="cue",status="success"} 1`) {
		t.Error("document load not recorded in metrics")
	}
}

func TestRecordDocumentLoadError(t *testing.T) {
	tel := newTestTelemetry(t)
	ctx := tel.WithContext(context.Background())

	want := errors.New("syntax error")
	err := RecordDocumentLoad(ctx, "terminal", "cue", []string{"settings.cue"}, func() error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected the load error back, got %v", err)
	}

	body := scrapeMetrics(t, tel.Metrics)
	if !strings.Contains(body, `strata_document_loads_total{format="cue",status="error"} 1`) {
		t.Error("failed load not recorded in metrics")
	}
}
