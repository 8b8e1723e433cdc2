package modulereg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBuiltins(t *testing.T) {
	r := New()
	for _, name := range []string{"seqomd", "reverb", "linein"} {
		v1, v2, err := r.Resolve(name)
		require.NoError(t, err)
		assert.NotNil(t, v1)
		assert.Nil(t, v2)
	}
}

func TestResolveUnknownErrors(t *testing.T) {
	r := New()
	_, _, err := r.Resolve("nope")
	assert.Error(t, err)
}
