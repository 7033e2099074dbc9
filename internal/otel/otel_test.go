package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	eventbus "github.com/hanpama/graphql-component/internal/eventbus"
	events "github.com/hanpama/graphql-component/internal/events"
	reqid "github.com/hanpama/graphql-component/internal/reqid"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup("", "svc")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestRegisterRecordsSpans(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	unsubscribe := Register(tp.Tracer(TracerName))
	defer unsubscribe()

	ctx, _ := reqid.NewContext(context.Background())
	eventbus.Publish(ctx, events.ExecuteStart{Component: "gateway", OperationType: "query"})
	eventbus.Publish(ctx, events.DelegateStart{Component: "books", Field: "book", Path: "book"})
	eventbus.Publish(ctx, events.DelegateFinish{Component: "books", Field: "book", Path: "book", Err: errors.New("down")})
	eventbus.Publish(ctx, events.ExecuteFinish{Component: "gateway", OperationType: "query"})

	ended := rec.Ended()
	require.Len(t, ended, 2)
	delegate, execute := ended[0], ended[1]
	require.Equal(t, "component.delegate", delegate.Name())
	require.Equal(t, "graphql.execute", execute.Name())
	require.Equal(t, execute.SpanContext().SpanID(), delegate.Parent().SpanID())
	require.Equal(t, codes.Error, delegate.Status().Code)
	require.Equal(t, codes.Unset, execute.Status().Code)
}

func TestUnsubscribeStopsRecording(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	Register(tp.Tracer(TracerName))()

	ctx, _ := reqid.NewContext(context.Background())
	eventbus.Publish(ctx, events.ExecuteStart{Component: "gateway"})
	eventbus.Publish(ctx, events.ExecuteFinish{Component: "gateway"})
	require.Empty(t, rec.Ended())
}
