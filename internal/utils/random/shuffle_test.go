package random

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffleKeepsElements(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, Shuffle(items))

	sorted := append([]int(nil), items...)
	sort.Ints(sorted)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, sorted)
}

func TestSampleDistinct(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	for i := 0; i < 50; i++ {
		got, err := Sample(items, 3)
		require.NoError(t, err)
		require.Len(t, got, 3)

		seen := map[string]bool{}
		for _, v := range got {
			assert.Contains(t, items, v)
			assert.False(t, seen[v], "duplicate %s", v)
			seen[v] = true
		}
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, items)
}

func TestSampleBounds(t *testing.T) {
	got, err := Sample([]int{1, 2}, 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, got)

	got, err = Sample([]int{}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Sample([]int{1, 2, 3}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSampleCoversAllElements(t *testing.T) {
	items := []int{0, 1, 2, 3}
	hits := make([]int, len(items))
	for i := 0; i < 400; i++ {
		got, err := Sample(items, 1)
		require.NoError(t, err)
		hits[got[0]]++
	}
	for i, h := range hits {
		assert.Greater(t, h, 0, "element %d never sampled", i)
	}
}
