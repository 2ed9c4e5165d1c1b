// Package otel turns bus events into OpenTelemetry spans.
package otel

import (
	"context"
	"strings"
	"sync"

	eventbus "github.com/hanpama/gramps/internal/eventbus"
	events "github.com/hanpama/gramps/internal/events"
	reqid "github.com/hanpama/gramps/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const tracerName = "gramps"

// Setup exports spans for the events published on bus to an OTLP collector
// at endpoint. If endpoint is empty, no telemetry is configured.
func Setup(ctx context.Context, endpoint, service string, bus *eventbus.Bus) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Register(bus, tp.Tracer(tracerName))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Register subscribes span handlers to bus and returns a function removing
// them again.
func Register(bus *eventbus.Bus, tracer trace.Tracer) func() {
	s := &subscriber{tracer: tracer}
	unsubs := []func(){
		eventbus.Subscribe(bus, s.composeStart),
		eventbus.Subscribe(bus, s.composeFinish),
		eventbus.Subscribe(bus, s.httpStart),
		eventbus.Subscribe(bus, s.httpFinish),
		eventbus.Subscribe(bus, s.graphqlStart),
		eventbus.Subscribe(bus, s.graphqlFinish),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

type subscriber struct {
	tracer       trace.Tracer
	composeSpans sync.Map // compose id -> trace.Span
	httpSpans    sync.Map // rid -> trace.Span
	gqlSpans     sync.Map // rid -> trace.Span
}

func (s *subscriber) composeStart(ctx context.Context, e events.ComposeStart) {
	_, span := s.tracer.Start(ctx, "gramps.compose")
	span.SetAttributes(
		attribute.String("gramps.namespaces", strings.Join(e.Namespaces, ",")),
		attribute.Bool("gramps.mock", e.Mock),
	)
	s.composeSpans.Store(e.ID, span)
}

func (s *subscriber) composeFinish(_ context.Context, e events.ComposeFinish) {
	v, ok := s.composeSpans.LoadAndDelete(e.ID)
	if !ok {
		return
	}
	span := v.(trace.Span)
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End()
}

func (s *subscriber) httpStart(ctx context.Context, e events.HTTPStart) {
	rid := requestID(ctx, e.RequestID)
	_, span := s.tracer.Start(ctx, "http.request")
	span.SetAttributes(
		attribute.String("gramps.request_id", rid),
		semconv.HTTPMethodKey.String(e.Request.Method),
		attribute.String("http.target", e.Request.URL.Path),
	)
	s.httpSpans.Store(rid, span)
}

func (s *subscriber) httpFinish(ctx context.Context, e events.HTTPFinish) {
	rid := requestID(ctx, e.RequestID)
	v, ok := s.httpSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
	span.End()
}

func (s *subscriber) graphqlStart(ctx context.Context, e events.GraphQLStart) {
	rid := requestID(ctx, e.RequestID)
	parent := ctx
	if v, ok := s.httpSpans.Load(rid); ok {
		parent = trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	_, span := s.tracer.Start(parent, "graphql.operation")
	span.SetAttributes(
		attribute.String("graphql.operation.name", e.OperationName),
		attribute.String("graphql.operation.type", e.OperationType),
	)
	s.gqlSpans.Store(rid, span)
}

func (s *subscriber) graphqlFinish(ctx context.Context, e events.GraphQLFinish) {
	rid := requestID(ctx, e.RequestID)
	v, ok := s.gqlSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(attribute.Int("graphql.error_count", len(e.Errors)))
	span.End()
}

// requestID prefers the id carried by the event and falls back to the one
// stored on ctx.
func requestID(ctx context.Context, id string) string {
	if id != "" {
		return id
	}
	id, _ = reqid.FromContext(ctx)
	return id
}
