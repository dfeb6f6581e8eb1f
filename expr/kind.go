package expr

import "fmt"

// Kind is the type tag of a node.
type Kind uint8

const (
	KindScalar Kind = iota
	KindSymbol
	KindFunction
	KindMultiplicative
	KindAdditive
	// KindAddBuilder and KindMulBuilder are pre-canonical: they only exist
	// while an expression is being assembled.
	KindAddBuilder
	KindMulBuilder

	numKinds
	numHashedKinds = KindAdditive + 1
)

var kindNames = [numKinds]string{
	KindScalar:         "scalar",
	KindSymbol:         "symbol",
	KindFunction:       "function",
	KindMultiplicative: "multiplicative",
	KindAdditive:       "additive",
	KindAddBuilder:     "add-builder",
	KindMulBuilder:     "mul-builder",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Hashed kinds are deduplicated by the store: structural equality implies
// pointer identity.
func (k Kind) Hashed() bool { return k < numHashedKinds }

// Canonical is the same as Hashed: every hashed kind is in canonical form.
func (k Kind) Canonical() bool { return k.Hashed() }
