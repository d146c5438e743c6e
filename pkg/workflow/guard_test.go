package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	assert.NoError(t, guard(func() error { return nil }))

	boom := errors.New("boom")
	assert.ErrorIs(t, guard(func() error { return boom }), boom)

	err := guard(func() error {
		var m map[string]int
		m["x"] = 1

		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}
