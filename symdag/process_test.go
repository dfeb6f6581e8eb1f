package symdag

import (
	"os"
	"path"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/cottand/symdag/parser"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	settings, err := LoadSettings(strings.NewReader(`
session:
  disable_cse: true
  cache_capacity: 10
check:
  enabled: true
  points: 3
log:
  level: debug
  sections: [parser]
`))
	require.NoError(t, err)
	assert.True(t, settings.Session.DisableCSE)
	assert.Equal(t, 10, settings.Session.CacheCapacity)
	assert.Equal(t, DefaultSettings().Session.TableMinBuckets, settings.Session.TableMinBuckets)
	assert.True(t, settings.Check.Enabled)
	assert.Equal(t, 3, settings.Check.Points)
	assert.Equal(t, DefaultSettings().Check.Tolerance, settings.Check.Tolerance)
	assert.Equal(t, []string{"parser"}, settings.Log.Sections)
	assert.Equal(t, "generated", settings.Package)
}

func TestLoadSettingsEmpty(t *testing.T) {
	settings, err := LoadSettings(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoadSettingsUnknownKey(t *testing.T) {
	_, err := LoadSettings(strings.NewReader("session:\n  cse: false\n"))
	assert.ErrorContains(t, err, "cse")
}

func TestLogLevel(t *testing.T) {
	assert.NoError(t, Log{Level: "info"}.Apply())
	assert.Error(t, Log{Level: "loud"}.Apply())
	assert.NoError(t, Log{Level: "warn"}.Apply())
}

func TestProcess(t *testing.T) {
	settings := DefaultSettings()
	settings.EmitGo = true
	res, err := Process("# factors\nf = x*y + x*z\n3 + 4\n", settings)
	require.NoError(t, err)

	require.Len(t, res.Definitions, 2)
	f := res.Definitions[0]
	assert.Equal(t, "f", f.Name)
	assert.Equal(t, 2, f.Line)
	assert.Equal(t, "x*y + x*z", f.Input)
	assert.Equal(t, "x*(y + z)", f.Canonical)
	assert.Equal(t, []string{"x", "y", "z"}, f.Params)

	constant := res.Definitions[1]
	assert.Equal(t, "e3", constant.Name)
	assert.Equal(t, "7", constant.Canonical)
	assert.Empty(t, constant.Params)

	assert.Contains(t, res.GoSource, "package generated")
	assert.Contains(t, res.GoSource, "func F_f(")
	assert.Contains(t, res.GoSource, "func F_e3()")
}

func TestProcessWithoutGo(t *testing.T) {
	res, err := Process("f = x + x", DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, "2*x", res.Definitions[0].Canonical)
	assert.Empty(t, res.GoSource)
}

func TestErrorOffsets(t *testing.T) {
	_, err := Process("a = 1\nb = x + / 2\n", DefaultSettings())
	require.Error(t, err)

	var syntaxErr *parser.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 2, syntaxErr.Line)
	assert.Equal(t, 9, syntaxErr.Column)
	assert.Contains(t, err.Error(), "2:9:")
	assert.Contains(t, err.Error(), "expected operand")
}

func TestProcessFile(t *testing.T) {
	fsys := fstest.MapFS{
		"defs.sym": {Data: []byte("g = exp(x)*exp(y)\n")},
	}
	res, err := ProcessFile(fsys, "defs.sym", DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, "exp(x + y)", res.Definitions[0].Canonical)

	_, err = ProcessFile(fsys, "missing.sym", DefaultSettings())
	assert.ErrorContains(t, err, "reading source")
}

func TestCheck(t *testing.T) {
	settings := DefaultSettings()
	settings.Check.Enabled = true
	settings.Check.Points = 8
	src := `
f = (x + 1)*(x + 1) - x*x
g = x*y + x*z + 3
h = sqrt(x)*sqrt(x)*y
k = pow(x, 2)/x + exp(y)*exp(y)
`
	res, err := Process(src, settings)
	require.NoError(t, err)
	require.Len(t, res.Definitions, 4)
	for _, d := range res.Definitions {
		assert.LessOrEqual(t, d.MaxRelError, settings.Check.Tolerance, d.Name)
	}
	assert.NotEmpty(t, res.GoSource)
}

func TestWriteModule(t *testing.T) {
	settings := DefaultSettings()
	dir := path.Join(t.TempDir(), "out")

	res, err := Process("f = x*y", settings)
	require.NoError(t, err)
	assert.Error(t, WriteModule(dir, res, settings))

	settings.EmitGo = true
	res, err = Process("f = x*y", settings)
	require.NoError(t, err)
	require.NoError(t, WriteModule(dir, res, settings))

	goMod, err := os.ReadFile(path.Join(dir, "go.mod"))
	require.NoError(t, err)
	assert.Contains(t, string(goMod), "module generated")
	src, err := os.ReadFile(path.Join(dir, "generated.go"))
	require.NoError(t, err)
	assert.Equal(t, res.GoSource, string(src))
}

func TestWriteTo(t *testing.T) {
	res, err := Process("f = x + x\ng = y*y", DefaultSettings())
	require.NoError(t, err)
	var sb strings.Builder
	_, err = res.WriteTo(&sb)
	require.NoError(t, err)
	assert.Equal(t, "f = 2*x\ng = pow(y, 2)\n", sb.String())
}
