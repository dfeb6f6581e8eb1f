package dag

const firstChunk = 16

// Stack is a LIFO stored in chunks, each twice the size of the previous one.
// Pushing never copies existing elements, and chunks survive Reset so a
// stack reused across operations stops allocating once warmed up.
type Stack[T any] struct {
	chunks [][]T
	// top is the index of the chunk holding the next free slot, pos the slot.
	top, pos int
	size     int
}

func (s *Stack[T]) Push(v T) {
	if len(s.chunks) == 0 {
		s.chunks = append(s.chunks, make([]T, firstChunk))
	}
	if s.pos == len(s.chunks[s.top]) {
		s.top++
		s.pos = 0
		if s.top == len(s.chunks) {
			s.chunks = append(s.chunks, make([]T, 2*len(s.chunks[s.top-1])))
		}
	}
	s.chunks[s.top][s.pos] = v
	s.pos++
	s.size++
}

func (s *Stack[T]) Pop() (ret T, ok bool) {
	if s.size == 0 {
		return ret, false
	}
	if s.pos == 0 {
		s.top--
		s.pos = len(s.chunks[s.top])
	}
	s.pos--
	ret = s.chunks[s.top][s.pos]
	var zero T
	s.chunks[s.top][s.pos] = zero
	s.size--
	return ret, true
}

func (s *Stack[T]) Len() int { return s.size }

// Reset empties the stack but keeps its chunks.
func (s *Stack[T]) Reset() {
	for s.size > 0 {
		s.Pop()
	}
	s.top, s.pos = 0, 0
}

// Capacity is the total number of slots across all chunks.
func (s *Stack[T]) Capacity() int {
	total := 0
	for _, c := range s.chunks {
		total += len(c)
	}
	return total
}
