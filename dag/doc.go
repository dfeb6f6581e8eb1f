// Package dag holds the allocation and bookkeeping primitives the expression
// store is built on: word-budgeted pools, geometrically growing stacks and
// lists, a weak-reference side table and a small branch predictor.
//
// Nothing in this package is safe for concurrent use.
package dag
