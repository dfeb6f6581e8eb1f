package expr

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

var (
	// ErrOutOfMemory is wrapped by the panic raised when the node pools stay
	// exhausted after the caches were cleared.
	ErrOutOfMemory = errors.New("symdag: out of memory")
	// ErrWrongKind is wrapped by the panic raised when a handle is cast to
	// a kind it does not have.
	ErrWrongKind = errors.New("symdag: wrong expression kind")
)

// invariantf reports a defect in the engine itself. It never returns.
func invariantf(format string, args ...any) {
	exceptions.Panicf("symdag invariant violated: "+format, args...)
}

func wrongKind(got, want Kind) {
	panic(errors.Wrapf(ErrWrongKind, "expected %s, got %s", want, got))
}
