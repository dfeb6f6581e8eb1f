package expr

import (
	"github.com/cottand/symdag/dag"
	"github.com/cottand/symdag/value"
)

type nodeFlags uint8

const (
	// flagTemporary marks a builder node its single owner may mutate in place.
	flagTemporary nodeFlags = 1 << iota
	// flagTracked marks the replacement of a subexpression cache entry.
	flagTracked
	// flagWeak marks a node registered in the weak table.
	flagWeak
	// flagNormalized marks an additive node whose scale is 1 and whose
	// terms share no common factor. It is never recomputed.
	flagNormalized
	// flagDying is set once unregistration starts.
	flagDying
)

// AddTerm is one (coefficient, term) pair of an additive node.
type AddTerm struct {
	Coef value.Value
	Term *Node
}

// IntPow is one integer power of a multiplicative node.
type IntPow struct {
	Power int64
	Base  *Node
}

// RealPow is one non-integer power of a multiplicative node.
type RealPow struct {
	Power value.Value
	Base  *Node
}

type additive struct {
	offset value.Value
	terms  []AddTerm
	// logCoef*log(logArg) when logArg != nil
	logCoef value.Value
	logArg  *Node
}

type multiplicative struct {
	ints  []IntPow
	reals []RealPow
	// exp(expArg) when expArg != nil
	expArg *Node
}

// item is one entry of a builder list. For a sum it stands for
// Value*Node, or Value*log(Node) when special. For a product it stands for
// Node^Value, or exp(Value*Node) when special.
type item struct {
	Value   value.Value
	Node    *Node
	Special bool
}

type builderList struct {
	items dag.List[item]
	scale value.Value
	// special counts the special items, which canonicalization folds into
	// a single log or exp carrier.
	special int
}

// Node is a vertex of the expression DAG. The header (kind, flags, refs, id,
// hash) is common to every kind; only the payload fields of its kind are set.
type Node struct {
	kind  Kind
	flags nodeFlags
	refs  int32
	id    uint64
	hash  uint64
	// next chains nodes sharing a bucket of the store's table
	next *Node

	scalar value.Value
	// name of a symbol or function
	name  string
	args  []*Node
	add   additive
	mul   multiplicative
	build *builderList
}

func (n *Node) has(f nodeFlags) bool { return n.flags&f != 0 }

// children calls yield for every direct child reference held by n.
func (n *Node) children(yield func(*Node)) {
	switch n.kind {
	case KindFunction:
		for _, a := range n.args {
			yield(a)
		}
	case KindAdditive:
		for _, t := range n.add.terms {
			yield(t.Term)
		}
		if n.add.logArg != nil {
			yield(n.add.logArg)
		}
	case KindMultiplicative:
		for _, p := range n.mul.ints {
			yield(p.Base)
		}
		for _, p := range n.mul.reals {
			yield(p.Base)
		}
		if n.mul.expArg != nil {
			yield(n.mul.expArg)
		}
	case KindAddBuilder, KindMulBuilder:
		for _, it := range n.build.items.All() {
			yield(it.Node)
		}
	}
}
