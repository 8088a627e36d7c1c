package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_EmptyDSNIsNoop(t *testing.T) {
	shutdown, err := Init(Config{})

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()
}

func TestStartSpan_WithoutSentry(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "Indexer.Index", SpanAttributes{
		Collection: "knowledge",
		Model:      "text-embedding-3-small",
		Operation:  "index",
	})

	require.NotNil(t, span)
	assert.NotNil(t, ctx)

	childCtx, child := StartSpan(ctx, "Indexer.flush", SpanAttributes{Operation: "upsert"})
	assert.NotNil(t, childCtx)

	child.SetError(errors.New("boom"))
	child.End()
	span.End()
}

func TestSpan_NilInnerIsSafe(t *testing.T) {
	span := &Span{}

	span.SetError(errors.New("ignored"))
	span.End()
}

func TestAddBreadcrumb_RecordedOnContextHub(t *testing.T) {
	hub := sentry.NewHub(nil, sentry.NewScope())
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	assert.NotPanics(t, func() {
		AddBreadcrumb(ctx, "indexer", "upserted 64 records")
		AddBreadcrumb(context.Background(), "indexer", "no hub on context")
	})
}
