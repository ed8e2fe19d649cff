package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/pollutantsai/aianalysis/internal/telemetry"

// CommandRecorder traces CLI commands and records their duration and outcome.
type CommandRecorder struct {
	tracer   trace.Tracer
	duration metric.Float64Histogram
	runs     metric.Int64Counter
}

// NewCommandRecorder creates instruments on the global providers. Call it
// after Init so the instruments bind to the installed SDK.
func NewCommandRecorder() (*CommandRecorder, error) {
	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram(
		"aqanalysis.command.duration",
		metric.WithDescription("Duration of CLI commands in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter(
		"aqanalysis.command.runs",
		metric.WithDescription("Number of CLI command runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	return &CommandRecorder{
		tracer:   otel.Tracer(instrumentationName),
		duration: duration,
		runs:     runs,
	}, nil
}

// Run executes fn inside a span named after the command. The context passed
// to fn carries the span, so client requests become its children.
func (r *CommandRecorder) Run(ctx context.Context, command string, fn func(ctx context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, "aqanalysis "+command,
		trace.WithAttributes(attribute.String("cli.command", command)),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	outcome := "success"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	attrs := metric.WithAttributes(
		attribute.String("cli.command", command),
		attribute.String("outcome", outcome),
	)
	r.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	r.runs.Add(ctx, 1, attrs)

	return err
}
