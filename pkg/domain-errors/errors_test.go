package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeUnknownRole, "role is not recognised")
		assert.True(t, HasCode(err, CodeUnknownRole))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("update policies: %w", New(CodePersistence, "store unavailable"))
		assert.True(t, HasCode(err, CodePersistence))
		assert.True(t, IsPersistence(err))
	})

	t.Run("outermost code wins", func(t *testing.T) {
		inner := New(CodeNotFound, "missing")
		outer := Wrap(inner, CodeInternal, "lookup failed")
		assert.True(t, HasCode(outer, CodeInternal))
		assert.False(t, HasCode(outer, CodeNotFound))
		assert.ErrorIs(t, outer, inner)
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		_, ok := CodeOf(errors.New("boom"))
		assert.False(t, ok)
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestMessageOf(t *testing.T) {
	err := Wrap(errors.New("dial tcp: refused"), CodeTimeout, "store timed out")
	assert.Equal(t, "store timed out", MessageOf(err))
	assert.Contains(t, err.Error(), "dial tcp: refused")
	assert.True(t, IsPersistence(err))
}
