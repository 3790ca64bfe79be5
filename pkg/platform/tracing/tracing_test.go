package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartSpan_NoopProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "identity.resolve", "role", "investor", "dangling")
	assert.NotNil(t, span)
	assert.Empty(t, TraceID(ctx))
	End(span, errors.New("boom"))
}
