package engine

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

const instrumentationName = "github.com/cmlibs/zinc-sub001/internal/engine"

// telemetry holds the tracer and metric instruments of an Engine.
type telemetry struct {
	tracer      trace.Tracer
	calls       metric.Int64Counter
	relabels    metric.Int64Counter
	relocations metric.Int64Counter
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider, logger *slog.Logger) *telemetry {
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	t := &telemetry{tracer: tp.Tracer(instrumentationName)}

	var err error
	if t.calls, err = meter.Int64Counter("meshid.renumber.calls",
		metric.WithDescription("Renumber calls by outcome"),
		metric.WithUnit("1")); err != nil {
		logger.Warn("create renumber call counter", "error", err)
	}
	if t.relabels, err = meter.Int64Counter("meshid.renumber.relabels",
		metric.WithDescription("Entities given a new identifier"),
		metric.WithUnit("1")); err != nil {
		logger.Warn("create relabel counter", "error", err)
	}
	if t.relocations, err = meter.Int64Counter("meshid.renumber.relocations",
		metric.WithDescription("Holders moved to a spare identifier"),
		metric.WithUnit("1")); err != nil {
		logger.Warn("create relocation counter", "error", err)
	}
	return t
}

func (t *telemetry) start(ctx context.Context, group string, space ir.Space, req Request) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("meshid.group", group),
		attribute.String("meshid.space", space.String()),
		attribute.Int64("meshid.offset", req.Offset),
	}
	if req.SortBy != nil {
		attrs = append(attrs, attribute.String("meshid.sort_field", req.SortBy.Name()))
	}
	return t.tracer.Start(ctx, "renumber", trace.WithAttributes(attrs...))
}

func (t *telemetry) finish(ctx context.Context, span trace.Span, group string, space ir.Space, report *Report, err error) {
	defer span.End()

	outcome := "ok"
	if err != nil {
		outcome = string(Code(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	} else {
		span.SetAttributes(
			attribute.Int("meshid.members", report.Members),
			attribute.Int("meshid.relabelled", report.Relabelled),
			attribute.Int("meshid.relocated", report.Relocated),
		)
		span.SetStatus(codes.Ok, "")
	}

	opts := metric.WithAttributes(
		attribute.String("meshid.space", space.String()),
		attribute.String("meshid.outcome", outcome),
	)
	if t.calls != nil {
		t.calls.Add(ctx, 1, opts)
	}
	if report == nil {
		return
	}
	spaceOpt := metric.WithAttributes(attribute.String("meshid.space", space.String()))
	if t.relabels != nil {
		t.relabels.Add(ctx, int64(report.Relabelled), spaceOpt)
	}
	if t.relocations != nil {
		t.relocations.Add(ctx, int64(report.Relocated), spaceOpt)
	}
}
