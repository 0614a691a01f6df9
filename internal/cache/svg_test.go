package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	c, err := NewSVGCache(t.TempDir(), 0)
	require.NoError(t, err)

	_, ok := c.Get(1, "forest")
	assert.False(t, ok)

	require.NoError(t, c.Put(1, "forest", []byte("<svg/>")))
	got, ok := c.Get(1, "forest")
	require.True(t, ok)
	assert.Equal(t, []byte("<svg/>"), got)

	// Different plot key under the same analysis is a separate entry.
	_, ok = c.Get(1, "width")
	assert.False(t, ok)
}

func TestGetOrGenerate(t *testing.T) {
	c, err := NewSVGCache(t.TempDir(), 0)
	require.NoError(t, err)

	calls := 0
	gen := func() ([]byte, error) {
		calls++
		return []byte("<svg>x</svg>"), nil
	}

	svg, err := c.GetOrGenerate(7, "forest", gen)
	require.NoError(t, err)
	assert.Equal(t, []byte("<svg>x</svg>"), svg)
	assert.Equal(t, 1, calls)

	// Second call is served from disk.
	_, err = c.GetOrGenerate(7, "forest", gen)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestGetOrGenerateError(t *testing.T) {
	c, err := NewSVGCache(t.TempDir(), 0)
	require.NoError(t, err)

	boom := errors.New("render failed")
	_, err = c.GetOrGenerate(1, "forest", func() ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, ok := c.Get(1, "forest")
	assert.False(t, ok, "failed generation must not be cached")
}

func TestPruneOldAnalyses(t *testing.T) {
	c, err := NewSVGCache(t.TempDir(), 2)
	require.NoError(t, err)

	for id := int64(1); id <= 4; id++ {
		require.NoError(t, c.Put(id, "forest", []byte("<svg/>")))
	}

	require.NoError(t, c.PruneOldAnalyses([]int64{1, 2, 3, 4}))

	// maxAnalyses=2 keeps the two newest ids.
	for id := int64(1); id <= 2; id++ {
		_, ok := c.Get(id, "forest")
		assert.False(t, ok, "analysis %d should be pruned", id)
	}
	for id := int64(3); id <= 4; id++ {
		_, ok := c.Get(id, "forest")
		assert.True(t, ok, "analysis %d should survive", id)
	}
}

func TestDeleteAnalysis(t *testing.T) {
	c, err := NewSVGCache(t.TempDir(), 0)
	require.NoError(t, err)

	require.NoError(t, c.Put(5, "forest", []byte("<svg/>")))
	require.NoError(t, c.DeleteAnalysis(5))
	_, ok := c.Get(5, "forest")
	assert.False(t, ok)

	// Deleting a missing analysis is not an error.
	require.NoError(t, c.DeleteAnalysis(99))
}
