package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "jobber-gateway"

// Metrics holds the gateway's metric instruments. A nil *Metrics is valid
// and counts nothing.
type Metrics struct {
	webhookEvents  metric.Int64Counter
	crmCalls       metric.Int64Counter
	crmDuration    metric.Float64Histogram
	tokenRefreshes metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.webhookEvents, err = meter.Int64Counter("gateway.webhook.events",
		metric.WithDescription("Number of inbound webhook events"))
	if err != nil {
		return nil, err
	}

	m.crmCalls, err = meter.Int64Counter("gateway.crm.calls",
		metric.WithDescription("Number of outbound CRM GraphQL calls"))
	if err != nil {
		return nil, err
	}

	m.crmDuration, err = meter.Float64Histogram("gateway.crm.call_duration_seconds",
		metric.WithDescription("Outbound CRM call duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.tokenRefreshes, err = meter.Int64Counter("gateway.token.refreshes",
		metric.WithDescription("Number of OAuth2 refresh-token exchanges"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// CountWebhookEvent records one inbound webhook event.
func (m *Metrics) CountWebhookEvent(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.webhookEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation)))
}

// CountCRMCall records one outbound CRM call and its duration.
func (m *Metrics) CountCRMCall(ctx context.Context, outcome string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.crmCalls.Add(ctx, 1, attrs)
	m.crmDuration.Record(ctx, seconds, attrs)
}

// CountTokenRefresh records one refresh-token exchange.
func (m *Metrics) CountTokenRefresh(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.tokenRefreshes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome)))
}
