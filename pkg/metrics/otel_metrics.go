package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics collects the settlement-domain instruments.
type OTelMetrics struct {
	SweepTotal         metric.Int64Counter
	SweepDuration      metric.Float64Histogram
	SweepErrorsTotal   metric.Int64Counter
	PenaltyChargeTotal metric.Int64Counter
	PenaltyAmountTotal metric.Int64Counter
	VerificationTotal  metric.Int64Counter
}

var (
	metrics *OTelMetrics
	meter   = otel.Meter("wakeorpay")
)

func InitMetrics() error {
	var err error

	metrics = &OTelMetrics{}

	metrics.SweepTotal, err = meter.Int64Counter(
		"settlement_sweep_total",
		metric.WithDescription("Total number of settlement sweeps"),
		metric.WithUnit("{sweep}"),
	)
	if err != nil {
		return err
	}

	metrics.SweepDuration, err = meter.Float64Histogram(
		"settlement_sweep_duration_seconds",
		metric.WithDescription("Time spent running one settlement sweep"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	metrics.SweepErrorsTotal, err = meter.Int64Counter(
		"settlement_sweep_errors_total",
		metric.WithDescription("Per-alarm errors during settlement sweeps"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	metrics.PenaltyChargeTotal, err = meter.Int64Counter(
		"penalty_charges_total",
		metric.WithDescription("Penalty charges issued, by outcome"),
		metric.WithUnit("{charge}"),
	)
	if err != nil {
		return err
	}

	metrics.PenaltyAmountTotal, err = meter.Int64Counter(
		"penalty_amount_minor_units_total",
		metric.WithDescription("Total penalty amount charged in minor currency units"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return err
	}

	metrics.VerificationTotal, err = meter.Int64Counter(
		"wake_verifications_total",
		metric.WithDescription("Wake verification attempts, by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	return nil
}

func GetMetrics() *OTelMetrics {
	return metrics
}

// RecordSweep records one completed sweep.
func (m *OTelMetrics) RecordSweep(ctx context.Context, durationSecs float64, charged, errors int) {
	if m == nil {
		return
	}
	m.SweepTotal.Add(ctx, 1)
	m.SweepDuration.Record(ctx, durationSecs)
	if errors > 0 {
		m.SweepErrorsTotal.Add(ctx, int64(errors))
	}
}

// RecordCharge records one penalty charge outcome.
func (m *OTelMetrics) RecordCharge(ctx context.Context, outcome, currency string, amount int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("currency", currency),
	)
	m.PenaltyChargeTotal.Add(ctx, 1, attrs)
	if outcome == "charged" {
		m.PenaltyAmountTotal.Add(ctx, amount, attrs)
	}
}

// RecordVerification records one verification attempt outcome.
func (m *OTelMetrics) RecordVerification(ctx context.Context, outcome, method string) {
	if m == nil {
		return
	}
	m.VerificationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("method", method),
	))
}
