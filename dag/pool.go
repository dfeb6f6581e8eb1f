package dag

import (
	"math/bits"
	"slices"
	"unsafe"
)

const wordSize = 8

// Budget is a word limit shared by every pool of a store. A zero Limit
// means unlimited.
type Budget struct {
	Limit    int
	reserved int
}

func (b *Budget) reserve(words int) bool {
	if b.Limit > 0 && b.reserved+words > b.Limit {
		return false
	}
	b.reserved += words
	return true
}

func (b *Budget) release(words int) {
	b.reserved -= words
}

// Reserved is the number of words currently held by pools, live or pooled.
func (b *Budget) Reserved() int { return b.reserved }

func wordsOf[T any]() int {
	var zero T
	w := int((unsafe.Sizeof(zero) + wordSize - 1) / wordSize)
	return max(w, 1)
}

// PoolStats describes the state of a Pool or Slab, in words.
type PoolStats struct {
	LiveWords   int
	PooledWords int
	// Classes maps a size class (in words) to the number of pooled blocks.
	Classes map[int]int
}

// Pool hands out slices of T grouped in power-of-two size classes keyed by
// their word count. Returned storage is recycled by Put and only given back
// to the runtime by Purge.
type Pool[T any] struct {
	budget       *Budget
	wordsPerElem int
	free         map[int][][]T
	live, pooled int
}

func NewPool[T any](budget *Budget) *Pool[T] {
	if budget == nil {
		budget = &Budget{}
	}
	return &Pool[T]{
		budget:       budget,
		wordsPerElem: wordsOf[T](),
		free:         make(map[int][][]T),
	}
}

func classCap(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Get returns a zeroed slice of length n. It reports false when the
// allocation would exceed the budget.
func (p *Pool[T]) Get(n int) ([]T, bool) {
	if n == 0 {
		return nil, true
	}
	c := classCap(n)
	words := c * p.wordsPerElem
	if list := p.free[words]; len(list) > 0 {
		s := list[len(list)-1]
		list[len(list)-1] = nil
		p.free[words] = list[:len(list)-1]
		p.pooled -= words
		p.live += words
		return s[:n], true
	}
	if !p.budget.reserve(words) {
		return nil, false
	}
	p.live += words
	return make([]T, n, c), true
}

// Put recycles s, which must have been obtained from Get on this pool.
func (p *Pool[T]) Put(s []T) {
	if cap(s) == 0 {
		return
	}
	s = s[:cap(s)]
	clear(s)
	words := cap(s) * p.wordsPerElem
	p.free[words] = append(p.free[words], s)
	p.live -= words
	p.pooled += words
}

// Purge drops every pooled block and returns its words to the budget.
func (p *Pool[T]) Purge() {
	for words, list := range p.free {
		p.budget.release(words * len(list))
	}
	clear(p.free)
	p.pooled = 0
}

func (p *Pool[T]) Stats() PoolStats {
	st := PoolStats{LiveWords: p.live, PooledWords: p.pooled, Classes: make(map[int]int, len(p.free))}
	for words, list := range p.free {
		if len(list) > 0 {
			st.Classes[words] = len(list)
		}
	}
	return st
}

// Slab recycles single objects of type T.
type Slab[T any] struct {
	budget       *Budget
	wordsPerElem int
	free         []*T
	live         int
}

func NewSlab[T any](budget *Budget) *Slab[T] {
	if budget == nil {
		budget = &Budget{}
	}
	return &Slab[T]{budget: budget, wordsPerElem: wordsOf[T]()}
}

// New returns a zeroed *T, or false if the budget is exhausted.
func (s *Slab[T]) New() (*T, bool) {
	if n := len(s.free); n > 0 {
		obj := s.free[n-1]
		s.free[n-1] = nil
		s.free = s.free[:n-1]
		s.live++
		return obj, true
	}
	if !s.budget.reserve(s.wordsPerElem) {
		return nil, false
	}
	s.live++
	return new(T), true
}

func (s *Slab[T]) Free(obj *T) {
	var zero T
	*obj = zero
	s.free = append(s.free, obj)
	s.live--
}

func (s *Slab[T]) Purge() {
	s.budget.release(len(s.free) * s.wordsPerElem)
	s.free = slices.Delete(s.free, 0, len(s.free))
}

// Live is the number of objects handed out and not yet freed.
func (s *Slab[T]) Live() int { return s.live }

func (s *Slab[T]) Stats() PoolStats {
	return PoolStats{
		LiveWords:   s.live * s.wordsPerElem,
		PooledWords: len(s.free) * s.wordsPerElem,
		Classes:     map[int]int{s.wordsPerElem: len(s.free)},
	}
}
