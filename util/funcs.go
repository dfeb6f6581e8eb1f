package util

import (
	"iter"
)

func SliceIter[A any](slice []A) iter.Seq[A] {
	return func(yield func(A) bool) {
		for _, v := range slice {
			if !yield(v) {
				return
			}
		}
	}
}

func MapIter[A, B any](iter iter.Seq[A], f func(A) B) iter.Seq[B] {
	return func(yield func(B) bool) {
		for v := range iter {
			if !yield(f(v)) {
				return
			}
		}
	}
}
