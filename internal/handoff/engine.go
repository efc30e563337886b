package handoff

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/crumbs/internal/ident"
	"github.com/fyrsmithlabs/crumbs/internal/journal"
	"github.com/fyrsmithlabs/crumbs/internal/logging"
)

const (
	instrumentationName = "github.com/fyrsmithlabs/crumbs/internal/handoff"

	// DefaultWindow is the suggested window used when none is given.
	DefaultWindow = 10
)

// Options carries the engine's collaborators. Zero fields get defaults.
type Options struct {
	IDs            *ident.Generator
	Now            func() time.Time
	Logger         *logging.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Engine marks and opens checkpoints stored in a journal.Store.
type Engine struct {
	store  *journal.Store
	ids    *ident.Generator
	now    func() time.Time
	logger *logging.Logger
	tracer trace.Tracer

	marked metric.Int64Counter
	opened metric.Int64Counter
}

// NewEngine creates an engine over store.
func NewEngine(store *journal.Store, opts Options) *Engine {
	e := &Engine{
		store:  store,
		ids:    opts.IDs,
		now:    opts.Now,
		logger: opts.Logger,
	}
	if e.ids == nil {
		e.ids = ident.NewGenerator(nil)
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	e.tracer = tp.Tracer(instrumentationName)

	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	e.marked = e.counter(meter, "crumbs.handoffs.marked", "Handoff checkpoints appended")
	e.opened = e.counter(meter, "crumbs.handoffs.opened", "Handoff checkpoints opened")
	return e
}

func (e *Engine) counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{handoff}"))
	if err != nil {
		e.logger.Warn(context.Background(), "failed to create counter",
			zap.String("name", name), zap.Error(err))
		return noop.Int64Counter{}
	}
	return c
}

// Mark appends a checkpoint ending at the newest memory.
//
// The first checkpoint ever covers roughly the window most recent
// memories; later ones start at the previous checkpoint's end.
func (e *Engine) Mark(ctx context.Context, window int, origin journal.Origin) (*journal.Handoff, error) {
	ctx, span := e.tracer.Start(ctx, "handoff.Mark",
		trace.WithAttributes(attribute.Int("handoff.window", window)))
	defer span.End()

	h, err := e.mark(ctx, window, origin)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("handoff.id", h.ID),
		attribute.String("handoff.to", h.ToMemoryID),
	)
	e.marked.Add(ctx, 1, metric.WithAttributes(attribute.Bool("bounded", h.FromMemoryID != nil)))
	return h, nil
}

func (e *Engine) mark(ctx context.Context, window int, origin journal.Origin) (*journal.Handoff, error) {
	if err := journal.ValidateWindow("window", window); err != nil {
		return nil, err
	}

	memories, err := e.store.Memories()
	if err != nil {
		return nil, err
	}
	handoffs, err := e.store.Handoffs()
	if err != nil {
		return nil, err
	}

	to, ok := journal.Newest(memories)
	if !ok {
		return nil, fmt.Errorf("no memories found; add at least one `what` or `why` first: %w", journal.ErrState)
	}

	from, err := boundary(memories, handoffs, to, window)
	if err != nil {
		return nil, err
	}

	h := &journal.Handoff{
		ID:              e.ids.Next(journal.IDs(handoffs), "hf"),
		Timestamp:       e.now().UTC().Truncate(time.Millisecond),
		FromMemoryID:    from,
		ToMemoryID:      to.ID,
		SuggestedWindow: window,
		WorkingDir:      origin.WorkingDir,
		Branch:          origin.Branch,
		Revision:        origin.Revision,
	}
	if err := e.store.AppendHandoff(*h); err != nil {
		return nil, err
	}

	e.logger.Debug(ctx, "handoff marked",
		zap.String("id", h.ID),
		zap.String("to", h.ToMemoryID),
		zap.Bool("chained", len(handoffs) > 0),
		zap.Int("window", window))
	return h, nil
}

// boundary returns the id the new checkpoint starts after, or nil when it
// covers the journal from the beginning.
func boundary(memories []journal.MemoryEntry, handoffs []journal.Handoff, to journal.MemoryEntry, window int) (*string, error) {
	if prev, ok := journal.Newest(handoffs); ok {
		if prev.ToMemoryID == to.ID {
			return nil, fmt.Errorf("no new memories since last handoff; run `cr handoff open`: %w", journal.ErrState)
		}
		from := prev.ToMemoryID
		return &from, nil
	}

	sorted := journal.SortNewest(memories)
	if len(sorted) > window {
		from := sorted[window].ID
		return &from, nil
	}
	return nil, nil
}

// OpenRequest selects a checkpoint and how much of it to show.
type OpenRequest struct {
	// ID is a checkpoint id or unambiguous prefix. Empty opens the newest.
	ID string
	// Limit overrides the checkpoint's suggested window when positive.
	// It may exceed the suggested window.
	Limit int
}

// OpenResult is a checkpoint's memory slice, newest first.
type OpenResult struct {
	Handoff journal.Handoff
	// Slice holds every memory in the checkpoint's range.
	Slice []journal.MemoryEntry
	// Shown is how many of Slice should be displayed.
	Shown int
}

// Total is the number of memories in the checkpoint's range.
func (r *OpenResult) Total() int { return len(r.Slice) }

// Visible returns the first Shown memories of the slice.
func (r *OpenResult) Visible() []journal.MemoryEntry { return r.Slice[:r.Shown] }

// Truncated reports whether fewer memories are shown than the range holds.
func (r *OpenResult) Truncated() bool { return r.Shown < len(r.Slice) }

// Open computes the memory slice covered by a checkpoint.
func (e *Engine) Open(ctx context.Context, req OpenRequest) (*OpenResult, error) {
	ctx, span := e.tracer.Start(ctx, "handoff.Open")
	defer span.End()

	res, err := e.open(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("handoff.id", res.Handoff.ID),
		attribute.Int("handoff.shown", res.Shown),
		attribute.Int("handoff.total", res.Total()),
	)
	e.opened.Add(ctx, 1, metric.WithAttributes(attribute.Bool("truncated", res.Truncated())))
	return res, nil
}

func (e *Engine) open(ctx context.Context, req OpenRequest) (*OpenResult, error) {
	if req.Limit < 0 {
		return nil, journal.ValidateWindow("limit", req.Limit)
	}

	handoffs, err := e.store.Handoffs()
	if err != nil {
		return nil, err
	}
	if len(handoffs) == 0 {
		return nil, fmt.Errorf("no handoffs found; run `cr handoff mark --window %d` to create one: %w",
			DefaultWindow, journal.ErrState)
	}

	var h journal.Handoff
	if req.ID == "" {
		h, _ = journal.Newest(handoffs)
	} else if h, err = journal.Resolve(handoffs, req.ID, journal.HandoffPrefixes); err != nil {
		return nil, err
	}

	memories, err := e.store.Memories()
	if err != nil {
		return nil, err
	}
	slice, err := Slice(memories, h)
	if err != nil {
		return nil, err
	}
	e.logger.Trace(ctx, "handoff range",
		zap.Stringp("from", h.FromMemoryID),
		zap.String("to", h.ToMemoryID),
		zap.Strings("ids", journal.IDs(slice)))

	display := h.SuggestedWindow
	if req.Limit > 0 {
		display = req.Limit
	}

	e.logger.Debug(ctx, "handoff opened",
		zap.String("id", h.ID),
		zap.Int("total", len(slice)),
		zap.Int("display", display))
	return &OpenResult{
		Handoff: h,
		Slice:   slice,
		Shown:   min(display, len(slice)),
	}, nil
}

// Slice returns the memories covered by h, newest first: every entry at or
// before the target's timestamp and strictly after the start's.
//
// A missing target is an ErrNotFound error. A missing start is treated as
// no lower bound.
func Slice(memories []journal.MemoryEntry, h journal.Handoff) ([]journal.MemoryEntry, error) {
	to, ok := journal.FindByID(memories, h.ToMemoryID)
	if !ok {
		return nil, fmt.Errorf("handoff target memory not found: %s: %w", h.ToMemoryID, journal.ErrNotFound)
	}

	var from *journal.MemoryEntry
	if h.FromMemoryID != nil {
		if m, ok := journal.FindByID(memories, *h.FromMemoryID); ok {
			from = &m
		}
	}

	var out []journal.MemoryEntry
	for _, m := range memories {
		if m.Timestamp.After(to.Timestamp) {
			continue
		}
		if from != nil && !m.Timestamp.After(from.Timestamp) {
			continue
		}
		out = append(out, m)
	}
	return journal.SortNewest(out), nil
}
