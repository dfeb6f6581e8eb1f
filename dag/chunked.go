package dag

import (
	"iter"
	"math/bits"
)

const firstListChunk = 8

// List is an append-only sequence stored in chunks that double in size, so
// appends never move earlier items.
type List[T any] struct {
	chunks [][]T
	size   int
}

// chunkOf maps an index to its chunk and offset. Chunk k starts at
// firstListChunk*(2^k - 1) and holds firstListChunk*2^k items.
func chunkOf(i int) (int, int) {
	k := bits.Len(uint(i/firstListChunk+1)) - 1
	start := firstListChunk * (1<<k - 1)
	return k, i - start
}

func (l *List[T]) Append(v T) {
	k, off := chunkOf(l.size)
	if k == len(l.chunks) {
		l.chunks = append(l.chunks, make([]T, firstListChunk<<k))
	}
	l.chunks[k][off] = v
	l.size++
}

func (l *List[T]) Len() int { return l.size }

func (l *List[T]) At(i int) T {
	if i < 0 || i >= l.size {
		panic("dag.List: index out of range")
	}
	k, off := chunkOf(i)
	return l.chunks[k][off]
}

func (l *List[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		i := 0
		for _, chunk := range l.chunks {
			for _, v := range chunk {
				if i == l.size {
					return
				}
				if !yield(i, v) {
					return
				}
				i++
			}
		}
	}
}

// Reset empties the list, zeroing items so they can be collected.
func (l *List[T]) Reset() {
	for _, chunk := range l.chunks {
		clear(chunk)
	}
	l.size = 0
}
