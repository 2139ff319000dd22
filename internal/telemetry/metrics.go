package telemetry

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/swasthatech/hospital-service"

// Metrics holds all custom metrics for the service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal metric.Int64Counter
	HTTPDurationMs    metric.Float64Histogram

	// Business metrics
	LoginsTotal            metric.Int64Counter
	RegistrationsTotal     metric.Int64Counter
	AppointmentTransitions metric.Int64Counter
	RecordLifecycleTotal   metric.Int64Counter
	RetentionPurgedTotal   metric.Int64Counter

	// Auth metrics
	AuthFailuresTotal       metric.Int64Counter
	PermissionCheckDuration metric.Float64Histogram
}

// instruments creates instruments on one meter and keeps the first error, so
// InitMetrics can declare everything before checking once.
type instruments struct {
	meter metric.Meter
	err   error
}

func (b *instruments) counter(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("counter %s: %w", name, err)
	}
	return c
}

func (b *instruments) histogram(name, desc, unit string) metric.Float64Histogram {
	h, err := b.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("histogram %s: %w", name, err)
	}
	return h
}

// InitMetrics registers the service instruments on the global meter provider.
func InitMetrics() (*Metrics, error) {
	b := &instruments{meter: otel.Meter(meterName)}
	m := &Metrics{
		HTTPRequestsTotal: b.counter("http_server_requests_total", "Total number of HTTP requests", "{request}"),
		HTTPDurationMs:    b.histogram("http_server_duration_milliseconds", "HTTP request duration in milliseconds", "ms"),

		LoginsTotal:            b.counter("logins_total", "Login attempts by outcome", "{attempt}"),
		RegistrationsTotal:     b.counter("registrations_total", "Accounts registered by role", "{account}"),
		AppointmentTransitions: b.counter("appointment_transitions_total", "Appointment status transitions", "{transition}"),
		RecordLifecycleTotal:   b.counter("record_lifecycle_total", "Soft delete, restore and purge operations on doctor and patient records", "{operation}"),
		RetentionPurgedTotal:   b.counter("retention_purged_total", "Records permanently removed by the retention job", "{record}"),

		AuthFailuresTotal:       b.counter("auth_failures_total", "Authentication failures by reason", "{failure}"),
		PermissionCheckDuration: b.histogram("permission_check_duration_ms", "Permission check duration in milliseconds", "ms"),
	}
	if b.err != nil {
		return nil, b.err
	}
	log.Debug().Str("meter", meterName).Msg("metrics registered")
	return m, nil
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, durationMs float64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http_method", method),
		attribute.String("http_route", route),
		attribute.Int("http_status_code", statusCode),
	}

	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.HTTPDurationMs.Record(ctx, durationMs, metric.WithAttributes(attrs...))
}

// RecordLogin records a login attempt; outcome is "success" or a failure reason.
func (m *Metrics) RecordLogin(ctx context.Context, role, outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("role", role),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordRegistration(ctx context.Context, role string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
}

// RecordAppointmentTransition records a status change of an appointment.
func (m *Metrics) RecordAppointmentTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.AppointmentTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordLifecycle records a soft delete, restore or purge of a record.
func (m *Metrics) RecordLifecycle(ctx context.Context, recordType, operation string) {
	if m == nil {
		return
	}
	m.RecordLifecycleTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("record_type", recordType),
		attribute.String("operation", operation),
	))
}

func (m *Metrics) RecordRetentionPurge(ctx context.Context, recordType string, count int64) {
	if m == nil || count == 0 {
		return
	}
	m.RetentionPurgedTotal.Add(ctx, count, metric.WithAttributes(attribute.String("record_type", recordType)))
}

// RecordAuthFailure records an authentication failure metric
func (m *Metrics) RecordAuthFailure(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordPermissionCheck records a permission check duration metric
func (m *Metrics) RecordPermissionCheck(ctx context.Context, permission string, durationMs float64, allowed bool) {
	if m == nil {
		return
	}
	m.PermissionCheckDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("permission", permission),
		attribute.Bool("allowed", allowed),
	))
}
