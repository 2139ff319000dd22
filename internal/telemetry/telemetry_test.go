package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/swasthatech/hospital-service/internal/config"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFromAppConfig(t *testing.T) {
	c := &config.Config{
		Environment:         "staging",
		OTELEndpoint:        "collector:4317",
		OTELServiceName:     "hospital-service",
		OTELServiceVersion:  "2.1.0",
		OTELTracesSampler:   "always_off",
		OTELMetricsInterval: 15 * time.Second,
	}

	got := FromAppConfig(c)
	if got.ServiceName != "hospital-service" || got.OTLPEndpoint != "collector:4317" {
		t.Errorf("Unexpected mapping: %+v", got)
	}
	if got.Environment != "staging" {
		t.Errorf("Expected environment staging, got %s", got.Environment)
	}
	if got.MetricsInterval != 15*time.Second {
		t.Errorf("Expected 15s interval, got %s", got.MetricsInterval)
	}
}

func TestConfig_Sampler(t *testing.T) {
	tests := []struct {
		name    string
		sampler string
		want    string
	}{
		{"always on", "always_on", "AlwaysOnSampler"},
		{"always off", "always_off", "AlwaysOffSampler"},
		{"ratio", "traceidratio", "TraceIDRatioBased{0.1}"},
		{"unknown defaults to on", "bogus", "AlwaysOnSampler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Config{TracesSampler: tt.sampler}.Sampler().Description()
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordHTTPRequest(ctx, "GET", "/health", 200, 1.5)
	m.RecordLogin(ctx, "Patient", "success")
	m.RecordAppointmentTransition(ctx, "Pending", "Confirmed")
	m.RecordAuthFailure(ctx, "expired")
	m.RecordPermissionCheck(ctx, "appointment:book", 0.1, true)
}

func TestMetrics_RecordsToProvider(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	defer otel.SetMeterProvider(prev)

	m, err := InitMetrics()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	ctx := context.Background()
	m.RecordAppointmentTransition(ctx, "Pending", "Confirmed")
	m.RecordAppointmentTransition(ctx, "Confirmed", "Completed")
	m.RecordLogin(ctx, "Doctor", "success")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			found[md.Name] = true
			if md.Name == "appointment_transitions_total" {
				sum, ok := md.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("Expected int64 sum, got %T", md.Data)
				}
				if len(sum.DataPoints) != 2 {
					t.Errorf("Expected 2 data points, got %d", len(sum.DataPoints))
				}
			}
		}
	}
	for _, name := range []string{"appointment_transitions_total", "logins_total"} {
		if !found[name] {
			t.Errorf("Expected metric %s to be collected", name)
		}
	}
}
