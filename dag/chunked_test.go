package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkOf(t *testing.T) {
	for _, tt := range []struct{ i, chunk, off int }{
		{0, 0, 0}, {7, 0, 7}, {8, 1, 0}, {23, 1, 15}, {24, 2, 0}, {56, 3, 0},
	} {
		k, off := chunkOf(tt.i)
		assert.Equal(t, tt.chunk, k, "chunk of %d", tt.i)
		assert.Equal(t, tt.off, off, "offset of %d", tt.i)
	}
}

func TestListAppendKeepsItemsInPlace(t *testing.T) {
	var l List[int]
	l.Append(0)
	first := &l.chunks[0][0]
	for i := 1; i < 500; i++ {
		l.Append(i)
	}
	require.Equal(t, 500, l.Len())
	assert.Same(t, first, &l.chunks[0][0])
	for i := range 500 {
		assert.Equal(t, i, l.At(i))
	}

	var seen []int
	for i, v := range l.All() {
		if i >= 40 && i < 44 {
			seen = append(seen, v)
		}
	}
	assert.Equal(t, []int{40, 41, 42, 43}, seen)
	assert.Panics(t, func() { l.At(500) })
}

func TestListReset(t *testing.T) {
	var l List[*int]
	v := 1
	for range 20 {
		l.Append(&v)
	}
	chunks := len(l.chunks)
	l.Reset()
	assert.Zero(t, l.Len())
	assert.Len(t, l.chunks, chunks)
	assert.Nil(t, l.chunks[1][3])
	for range l.All() {
		t.Fatal("reset list yielded an item")
	}
}
