package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDisabledMetricsAreNoOp(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	// None of these should panic on the no-op instance.
	m.RecordResolution("self", 0)
	m.RecordSettingWrite("nullable")
	m.RecordSettingClear()
	m.RecordDocumentLoad("cue", "success", time.Millisecond)
	m.RecordWatchReload("success")
	m.RecordError("resolution")
	m.SetGraphSize(3, 10)

	if err := m.StartMetricsServer(); err != nil {
		t.Errorf("disabled server start should not error: %v", err)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{
		Enabled:       true,
		ListenAddress: ":0",
		Path:          "/metrics",
		Namespace:     "strata",
	})
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	m.RecordResolution("inherited", 2)
	m.RecordResolution("default", 0)
	m.RecordSettingWrite("required")
	m.SetGraphSize(3, 10)

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
	body := string(raw)

	for _, want := range []string{
		`strata_resolutions_total{origin="inherited"} 1`,
		`strata_resolutions_total{origin="default"} 1`,
		`strata_setting_writes_total{kind="required"} 1`,
		`strata_active_layers 3`,
		`strata_declared_settings 10`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
