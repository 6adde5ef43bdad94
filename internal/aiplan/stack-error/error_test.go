package stack_error

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBase = errors.New("base")

func TestTrackErrorStack(t *testing.T) {
	te := TrackErrorStack(errBase).AddContext("session", "s1").AddContext("session", "s2")
	wrapped := TrackErrorStack(fmt.Errorf("apply: %w", te))

	assert.Same(t, te, wrapped)
	assert.Len(t, te.ErrStack, 2)
	assert.Equal(t, "s1", te.Context["session"])
	assert.ErrorIs(t, wrapped, errBase)
	assert.Equal(t, "base", wrapped.Error())

	v := te.LogValue()
	require.Equal(t, slog.KindGroup, v.Kind())
	group := v.Group()
	assert.Equal(t, "session", group[0].Key)
	assert.True(t, strings.HasPrefix(group[1].Value.String(), "error_test.go:"))
}
