// Package birch composes the column projector, a row source and the row
// nester into one query capability: grow a projection for a set of
// tables, execute it, and nest the flat result.
package birch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/leengari/birchtree/internal/domain/data"
	"github.com/leengari/birchtree/internal/query/nest"
	"github.com/leengari/birchtree/internal/query/projection"
	"github.com/leengari/birchtree/internal/source"
)

const tracerName = "github.com/leengari/birchtree/internal/birch"

// Executor runs a projection list against a FROM clause
type Executor interface {
	Select(ctx context.Context, q source.Query) ([]data.Row, error)
}

// Request selects Tables (descriptor tokens, root first) using From.
// An empty From defaults to the single table's descriptor.
type Request struct {
	Tables []string
	From   string
	Args   []interface{}
}

type Result struct {
	RequestID  string
	Projection []string
	Rows       []data.Node
}

// Tree wraps an executor without changing it
type Tree struct {
	projector *projection.Projector
	executor  Executor
	tracer    trace.Tracer

	mu        sync.RWMutex
	observers []Observer
}

type Option func(*Tree)

// WithTracerProvider replaces the global tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *Tree) {
		t.tracer = tp.Tracer(tracerName)
	}
}

func New(executor Executor, projector *projection.Projector, opts ...Option) *Tree {
	t := &Tree{
		projector: projector,
		executor:  executor,
		tracer:    otel.Tracer(tracerName),
		observers: make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tree) Projector() *projection.Projector {
	return t.projector
}

// Grow returns the projection list for tables
func (t *Tree) Grow(ctx context.Context, tables ...string) ([]string, error) {
	ctx, span := t.tracer.Start(ctx, "birch.grow",
		trace.WithAttributes(attribute.StringSlice("birch.tables", tables)))
	defer span.End()

	result, err := t.projector.Grow(ctx, tables...)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("birch.columns", len(result)))
	return result, nil
}

// Nest turns flat rows into nested nodes
func (t *Tree) Nest(ctx context.Context, rows []data.Row) []data.Node {
	_, span := t.tracer.Start(ctx, "birch.nest",
		trace.WithAttributes(attribute.Int("birch.rows", len(rows))))
	defer span.End()

	nodes := nest.Nest(rows)
	span.SetAttributes(attribute.Int("birch.nodes", len(nodes)))
	return nodes
}

// Flatten turns nested nodes back into flat rows
func (t *Tree) Flatten(nodes []data.Node) []data.Row {
	return nest.Flatten(nodes)
}

// Select grows the projection, executes it and nests the result
func (t *Tree) Select(ctx context.Context, req Request) (*Result, error) {
	requestID := uuid.New().String()

	ctx, span := t.tracer.Start(ctx, "birch.select",
		trace.WithAttributes(
			attribute.String("birch.request_id", requestID),
			attribute.StringSlice("birch.tables", req.Tables),
		))
	defer span.End()

	proj, rows, err := t.run(ctx, span, requestID, req)
	if err != nil {
		return nil, err
	}

	t.notify(Event{Type: EventNestStart, RequestID: requestID, Data: len(rows)})
	nodes := t.Nest(ctx, rows)
	t.notify(Event{Type: EventNestEnd, RequestID: requestID, Data: len(nodes)})

	span.SetAttributes(attribute.Int("birch.rows", len(rows)), attribute.Int("birch.nodes", len(nodes)))

	return &Result{RequestID: requestID, Projection: proj, Rows: nodes}, nil
}

// Rows grows and executes req like Select but returns the flat rows
// unnested, so identical rows are all kept
func (t *Tree) Rows(ctx context.Context, req Request) ([]data.Row, error) {
	requestID := uuid.New().String()

	ctx, span := t.tracer.Start(ctx, "birch.rows",
		trace.WithAttributes(
			attribute.String("birch.request_id", requestID),
			attribute.StringSlice("birch.tables", req.Tables),
		))
	defer span.End()

	_, rows, err := t.run(ctx, span, requestID, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("birch.rows", len(rows)))
	return rows, nil
}

// run grows the projection for req and executes it
func (t *Tree) run(ctx context.Context, span trace.Span, requestID string, req Request) ([]string, []data.Row, error) {
	from := req.From
	if strings.TrimSpace(from) == "" {
		if len(req.Tables) != 1 {
			err := fmt.Errorf("a FROM clause is required when selecting %d tables", len(req.Tables))
			recordError(span, err)
			return nil, nil, err
		}
		from = req.Tables[0]
	}

	t.notify(Event{Type: EventGrowStart, RequestID: requestID, Data: req.Tables})
	proj, err := t.Grow(ctx, req.Tables...)
	if err != nil {
		recordError(span, err)
		return nil, nil, fmt.Errorf("grow error: %w", err)
	}
	t.notify(Event{Type: EventGrowEnd, RequestID: requestID, Data: len(proj)})

	t.notify(Event{Type: EventExecStart, RequestID: requestID, Data: from})
	rows, err := t.executor.Select(ctx, source.Query{Projection: proj, From: from, Args: req.Args})
	if err != nil {
		recordError(span, err)
		return nil, nil, fmt.Errorf("execution error: %w", err)
	}
	t.notify(Event{Type: EventExecEnd, RequestID: requestID, Data: len(rows)})

	return proj, rows, nil
}

// AddObserver registers an observer to receive lifecycle events
func (t *Tree) AddObserver(observer Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, observer)
}

// RemoveObserver unregisters an observer
func (t *Tree) RemoveObserver(observer Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, o := range t.observers {
		if o == observer {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// notify sends an event to all registered observers
func (t *Tree) notify(event Event) {
	event.Timestamp = time.Now()
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, observer := range t.observers {
		observer.OnEvent(event)
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
