package changefeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	c, err := decode(`{"collection":"ieltsMaterials/Reading Passage 1/lessons","origin":"a","at":"2025-01-01T00:00:00Z"}`)
	require.NoError(t, err)
	assert.Equal(t, "ieltsMaterials/Reading Passage 1/lessons", c.Collection)
	assert.Equal(t, "a", c.Origin)

	_, err = decode(`{"origin":"a"}`)
	require.Error(t, err)

	_, err = decode(`not json`)
	require.Error(t, err)
}
