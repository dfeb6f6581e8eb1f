package parser

import (
	"testing"

	"github.com/cottand/symdag/expr"
	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenerUnderflow(t *testing.T) {
	s := expr.NewSession(expr.DefaultConfig())
	t.Cleanup(s.Close)

	l := &listener{s: s}
	err := exceptions.TryCatch[error](func() { l.pop() })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expression stack underflow")
}
