package engine

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// DefaultProbeLimit bounds the search for a spare identifier when the
// holder of a wanted identifier has to be moved out of the way.
const DefaultProbeLimit = 1 << 20

// Engine renumbers the entities of one collection.
//
// An Engine holds no per-call state; calls must not run concurrently on
// the same collection.
type Engine struct {
	coll       Collection
	logger     *slog.Logger
	probeLimit int
	tracerProv trace.TracerProvider
	meterProv  metric.MeterProvider
	tel        *telemetry
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithProbeLimit caps how many identifiers the spare search may examine
// for a single relocation.
//
// Default: DefaultProbeLimit. Values below 1 keep the default.
func WithProbeLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.probeLimit = n
		}
	}
}

// WithTracerProvider sets the tracer provider. Default: no-op.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracerProv = tp
	}
}

// WithMeterProvider sets the meter provider. Default: no-op.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) {
		e.meterProv = mp
	}
}

// New creates an Engine bound to coll.
func New(coll Collection, opts ...Option) *Engine {
	e := &Engine{
		coll:       coll,
		logger:     slog.Default(),
		probeLimit: DefaultProbeLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tel = newTelemetry(e.tracerProv, e.meterProv, e.logger)
	return e
}

// Collection returns the collection the engine relabels.
func (e *Engine) Collection() Collection {
	return e.coll
}

// Request describes one renumber call.
type Request struct {
	// Group names the entities to renumber. "" renumbers every entity of
	// the kind.
	Group string

	// Kind selects the identifier space.
	Kind EntityKind

	// Offset is added to every identifier when SortBy is nil. With SortBy
	// it is the first identifier of the sequence.
	Offset int64

	// SortBy orders the members before numbering them from Offset.
	SortBy Field

	// Time is passed to SortBy.
	Time float64
}

// Report summarizes a successful call.
type Report struct {
	Group string
	Space ir.Space

	// Members is the number of entities renumbered.
	Members int

	// Relabelled counts members whose identifier changed.
	Relabelled int

	// Relocated counts temporary moves of a holder to a spare identifier.
	Relocated int

	// Changes lists every member whose identifier changed, in processing
	// order, from its original to its new identifier.
	Changes []ir.Change
}

// Renumber runs one renumber call.
//
// Errors are *RenumberError. Only ErrCodeMutationFailure can leave the
// collection changed.
func (e *Engine) Renumber(ctx context.Context, req Request) (*Report, error) {
	if req.Kind == nil {
		return nil, &RenumberError{Code: ErrCodeInvalidRequest, Message: "no entity kind", Group: req.Group}
	}
	space := req.Kind.Space()
	group := ir.NormalizeName(req.Group)

	ctx, span := e.tel.start(ctx, group, space, req)
	report, err := e.renumber(ctx, group, req)
	e.tel.finish(ctx, span, group, space, report, err)
	if err == nil {
		e.logger.Info("renumbered", "group", group, "space", space,
			"members", report.Members, "relabelled", report.Relabelled, "relocated", report.Relocated)
	}
	return report, err
}

func (e *Engine) renumber(ctx context.Context, group string, req Request) (*Report, error) {
	space := req.Kind.Space()
	report := &Report{Group: group, Space: space}

	n, err := e.coll.CountMembers(ctx, group, space)
	if err != nil {
		return nil, readError(group, space, "count members", err)
	}
	if n == 0 {
		e.logger.Debug("renumber: empty group", "group", group, "space", space)
		return report, nil
	}

	recs, err := e.snapshot(ctx, group, req)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("renumber: snapshot", "group", group, "space", space, "members", len(recs))

	if err := assignKeys(recs, req, group, space); err != nil {
		return nil, err
	}

	if err := e.validate(ctx, group, space, recs); err != nil {
		return nil, err
	}
	e.logger.Debug("renumber: validated", "group", group, "space", space)

	if err := ctx.Err(); err != nil {
		return nil, readError(group, space, "cancelled before apply", err)
	}
	report.Members = len(recs)
	if err := e.apply(ctx, group, space, recs, report); err != nil {
		return nil, err
	}
	return report, nil
}

func readError(group string, space ir.Space, what string, err error) *RenumberError {
	return &RenumberError{
		Code:    ErrCodeCollectionRead,
		Message: what,
		Group:   group,
		Space:   space,
		Err:     err,
	}
}
