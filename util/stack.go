package util

type Stack[A any] struct {
	items []A
}

func (s *Stack[A]) Push(v A) {
	s.items = append(s.items, v)
}

func (s *Stack[A]) Pop() (ret A, ok bool) {
	if len(s.items) <= 0 {
		return ret, false
	}
	lastIndex := len(s.items) - 1
	ret = s.items[lastIndex]
	var zero A
	s.items[lastIndex] = zero
	s.items = s.items[:lastIndex]
	return ret, true
}

func (s *Stack[A]) Len() int {
	return len(s.items)
}

// Reset empties the stack, keeping its backing array
func (s *Stack[A]) Reset() {
	clear(s.items)
	s.items = s.items[:0]
}

func (s *Stack[A]) PopAll() []A {
	defer func() {
		s.items = make([]A, 0)
	}()
	return s.items
}
