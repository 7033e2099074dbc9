// Package otel turns execution and delegation events into OpenTelemetry spans.
package otel

import (
	"context"
	"strings"
	"sync"

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

	eventbus "github.com/hanpama/graphql-component/internal/eventbus"
	events "github.com/hanpama/graphql-component/internal/events"
	reqid "github.com/hanpama/graphql-component/internal/reqid"
)

// TracerName names the tracer spans are recorded with.
const TracerName = "graphql-component"

// Setup exports spans over OTLP/gRPC to endpoint and subscribes to the event
// bus. With an empty endpoint nothing is configured. The returned function
// flushes and stops the exporter.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
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

	unsubscribe := Register(tp.Tracer(TracerName))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Register records spans with tracer until the returned function is called.
func Register(tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	return s.register()
}

type subscriber struct {
	tracer        trace.Tracer
	executeSpans  sync.Map // rid/component -> trace.Span
	delegateSpans sync.Map // rid/component/path -> trace.Span
}

func executeKey(ctx context.Context, component string) string {
	rid, _ := reqid.FromContext(ctx)
	return rid + "/" + component
}

func delegateKey(ctx context.Context, component, path string) string {
	rid, _ := reqid.FromContext(ctx)
	return rid + "/" + component + "/" + path
}

func (s *subscriber) register() func() {
	var unsubs []func()

	unsubs = append(unsubs, eventbus.Subscribe(func(ctx context.Context, e events.ExecuteStart) {
		_, span := s.tracer.Start(ctx, "graphql.execute")
		span.SetAttributes(
			attribute.String("graphql.component", e.Component),
			attribute.String("graphql.operation.name", e.OperationName),
			attribute.String("graphql.operation.type", e.OperationType),
		)
		s.executeSpans.Store(executeKey(ctx, e.Component), span)
	}))

	unsubs = append(unsubs, eventbus.Subscribe(func(ctx context.Context, e events.ExecuteFinish) {
		v, ok := s.executeSpans.LoadAndDelete(executeKey(ctx, e.Component))
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(attribute.Int("graphql.error_count", len(e.Errors)))
		if len(e.Errors) > 0 {
			span.SetStatus(codes.Error, e.Errors[0].Error())
		}
		span.End()
	}))

	unsubs = append(unsubs, eventbus.Subscribe(func(ctx context.Context, e events.DelegateStart) {
		parent := ctx
		rid, _ := reqid.FromContext(ctx)
		s.executeSpans.Range(func(k, v any) bool {
			if strings.HasPrefix(k.(string), rid+"/") {
				parent = trace.ContextWithSpan(ctx, v.(trace.Span))
				return false
			}
			return true
		})
		_, span := s.tracer.Start(parent, "component.delegate")
		span.SetAttributes(
			attribute.String("graphql.component", e.Component),
			attribute.String("graphql.field", e.Field),
			attribute.String("graphql.path", e.Path),
		)
		s.delegateSpans.Store(delegateKey(ctx, e.Component, e.Path), span)
	}))

	unsubs = append(unsubs, eventbus.Subscribe(func(ctx context.Context, e events.DelegateFinish) {
		v, ok := s.delegateSpans.LoadAndDelete(delegateKey(ctx, e.Component, e.Path))
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(attribute.Int("graphql.error_count", e.Errors))
		if e.Err != nil {
			span.RecordError(e.Err)
			span.SetStatus(codes.Error, e.Err.Error())
		}
		span.End()
	}))

	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
