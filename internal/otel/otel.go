package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/supergraph/internal/eventbus"
	events "github.com/hanpama/supergraph/internal/events"
	reqid "github.com/hanpama/supergraph/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers that
// translate compose/plan/HTTP events into spans.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
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

	sub := &subscriber{tracer: otel.Tracer("supergraph")}
	sub.register()

	return tp.Shutdown, nil
}

type subscriber struct {
	tracer       trace.Tracer
	httpSpans    sync.Map // rid -> trace.Span
	planSpans    sync.Map // rid -> trace.Span
	composeSpans sync.Map // rid -> trace.Span
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPStart) {
		_, span := s.tracer.Start(ctx, "http "+e.Request.Method+" "+e.Request.URL.Path,
			trace.WithAttributes(
				attribute.String("http.method", e.Request.Method),
				attribute.String("http.target", e.Request.URL.Path),
			))
		s.httpSpans.Store(rid(ctx), span)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		if v, ok := s.httpSpans.LoadAndDelete(rid(ctx)); ok {
			span := v.(trace.Span)
			span.SetAttributes(attribute.Int("http.status_code", e.Status))
			span.End()
		}
	})

	eventbus.Subscribe(func(ctx context.Context, e events.PlanStart) {
		_, span := s.tracer.Start(ctx, "plan "+e.OperationType,
			trace.WithAttributes(
				attribute.String("graphql.operation.name", e.OperationName),
				attribute.String("graphql.operation.type", e.OperationType),
			))
		s.planSpans.Store(rid(ctx), span)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.PlanFinish) {
		if v, ok := s.planSpans.LoadAndDelete(rid(ctx)); ok {
			span := v.(trace.Span)
			span.SetAttributes(attribute.Int("plan.fields", e.Fields))
			if e.Err != nil {
				span.SetStatus(codes.Error, e.Err.Error())
			}
			span.End()
		}
	})

	eventbus.Subscribe(func(ctx context.Context, e events.ComposeStart) {
		_, span := s.tracer.Start(ctx, "compose",
			trace.WithAttributes(attribute.StringSlice("compose.subgraphs", e.Subgraphs)))
		s.composeSpans.Store(rid(ctx), span)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.ComposeFinish) {
		if v, ok := s.composeSpans.LoadAndDelete(rid(ctx)); ok {
			span := v.(trace.Span)
			span.SetAttributes(
				attribute.Int("compose.errors", len(e.Errors)),
				attribute.Int("compose.hints", e.Hints),
			)
			if len(e.Errors) > 0 {
				span.SetStatus(codes.Error, e.Errors[0].Error())
			}
			span.End()
		}
	})
}

// rid keys concurrent spans by request ID; events outside a request
// context share the zero key.
func rid(ctx context.Context) int64 {
	id, _ := reqid.FromContext(ctx)
	return id
}
