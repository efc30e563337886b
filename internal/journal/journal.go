package journal

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
	"github.com/fyrsmithlabs/crumbs/internal/logging"
)

const instrumentationName = "github.com/fyrsmithlabs/crumbs/internal/journal"

// TextGuard vets memory text before it is written.
type TextGuard interface {
	Check(text string) error
}

// Options carries the journal's collaborators. Zero fields get defaults.
type Options struct {
	// IDs generates record identifiers (default: process-wide randomness).
	IDs *ident.Generator
	// Now is the clock (default: time.Now).
	Now func() time.Time
	// Guard rejects unsafe text (default: none).
	Guard TextGuard
	// Logger receives debug and info events (default: nop).
	Logger *logging.Logger
	// TracerProvider and MeterProvider default to the otel globals.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func (o Options) withDefaults() Options {
	if o.IDs == nil {
		o.IDs = ident.NewGenerator(nil)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.TracerProvider == nil {
		o.TracerProvider = otel.GetTracerProvider()
	}
	if o.MeterProvider == nil {
		o.MeterProvider = otel.GetMeterProvider()
	}
	return o
}

// Journal records and queries memory entries.
type Journal struct {
	store  *Store
	opts   Options
	tracer trace.Tracer

	appended metric.Int64Counter
}

// New creates a journal over store.
func New(store *Store, opts Options) *Journal {
	opts = opts.withDefaults()
	meter := opts.MeterProvider.Meter(instrumentationName)

	appended, err := meter.Int64Counter("crumbs.memories.appended",
		metric.WithDescription("Memory entries appended to the journal"),
		metric.WithUnit("{memory}"))
	if err != nil {
		opts.Logger.Warn(context.Background(), "failed to create counter", zap.Error(err))
		appended = noop.Int64Counter{}
	}

	return &Journal{
		store:    store,
		opts:     opts,
		tracer:   opts.TracerProvider.Tracer(instrumentationName),
		appended: appended,
	}
}

// Store returns the backing store.
func (j *Journal) Store() *Store { return j.store }

// Add validates text and appends a new memory entry.
func (j *Journal) Add(ctx context.Context, kind Kind, text string, origin Origin) (*MemoryEntry, error) {
	ctx, span := j.tracer.Start(ctx, "journal.Add",
		trace.WithAttributes(attribute.String("memory.kind", string(kind))))
	defer span.End()

	entry, err := j.add(ctx, kind, text, origin)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("memory.id", entry.ID))
	j.appended.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
	return entry, nil
}

func (j *Journal) add(ctx context.Context, kind Kind, text string, origin Origin) (*MemoryEntry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if err := ValidateText(text); err != nil {
		return nil, err
	}
	if j.opts.Guard != nil {
		if err := j.opts.Guard.Check(text); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}

	memories, err := j.store.Memories()
	if err != nil {
		return nil, err
	}

	entry := &MemoryEntry{
		ID:         j.opts.IDs.Next(IDs(memories), "cr"),
		Kind:       kind,
		Text:       text,
		Timestamp:  j.opts.Now().UTC().Truncate(time.Millisecond),
		WorkingDir: origin.WorkingDir,
		Branch:     origin.Branch,
		Revision:   origin.Revision,
	}
	if err := j.store.AppendMemory(*entry); err != nil {
		return nil, err
	}

	j.opts.Logger.Debug(ctx, "memory appended",
		zap.String("id", entry.ID),
		zap.String("kind", string(kind)),
		zap.String("path", j.store.MemoriesPath()))
	return entry, nil
}

// List returns at most n memories, newest first.
func (j *Journal) List(ctx context.Context, n int) ([]MemoryEntry, error) {
	memories, err := j.store.Memories()
	if err != nil {
		return nil, err
	}
	return Latest(memories, n), nil
}

// Show resolves an id or unambiguous id prefix to one memory.
func (j *Journal) Show(ctx context.Context, idOrPrefix string) (*MemoryEntry, error) {
	memories, err := j.store.Memories()
	if err != nil {
		return nil, err
	}
	m, err := Resolve(memories, idOrPrefix, MemoryPrefixes)
	if err != nil {
		return nil, err
	}
	j.opts.Logger.Debug(ctx, "memory resolved", zap.String("input", idOrPrefix), zap.String("id", m.ID))
	return &m, nil
}

// Find returns at most limit memories whose text contains query, newest first.
func (j *Journal) Find(ctx context.Context, query string, limit int) ([]MemoryEntry, error) {
	memories, err := j.store.Memories()
	if err != nil {
		return nil, err
	}
	return Search(memories, query, limit), nil
}
