package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
	assert.Same(t, slog.Default(), FromContext(nil))
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), base)

	ctx, logger := With(ctx, "runID", "r-1")
	assert.Same(t, logger, FromContext(ctx))

	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), "runID=r-1")
	assert.Contains(t, buf.String(), "msg=hello")
}
