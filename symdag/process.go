package symdag

import (
	"fmt"
	"io"
	"io/fs"
	"math"
	"math/rand/v2"
	"os"
	"path"
	"strings"

	"github.com/cottand/symdag/backend"
	"github.com/cottand/symdag/expr"
	"github.com/cottand/symdag/internal/log"
	"github.com/cottand/symdag/parser"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

var logger = log.DefaultLogger.With("section", "symdag")

// ErrMismatch is returned by a check that found a canonical form whose
// value differs from its input's.
var ErrMismatch = errors.New("canonical form disagrees with its input")

// Definition is the outcome for one line of the source.
type Definition struct {
	Name      string
	Line      int
	Input     string
	Canonical string
	Params    []string
	// MaxRelError is the largest relative difference seen by the check.
	MaxRelError float64
}

type Result struct {
	Definitions []Definition
	// GoSource is set when Settings.EmitGo or the check is enabled.
	GoSource string
	Stats    expr.Stats
}

// Process canonicalizes every definition of src in a fresh session.
// Invariant violations inside the engine are returned as errors.
func Process(src string, settings Settings) (*Result, error) {
	var (
		res *Result
		err error
	)
	if panicErr := exceptions.TryCatch[error](func() { res, err = process(src, settings) }); panicErr != nil {
		return nil, errors.Wrap(panicErr, "symdag failed")
	}
	return res, err
}

// ProcessFile reads name from fsys and processes it.
func ProcessFile(fsys fs.FS, name string, settings Settings) (*Result, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.Wrap(err, "reading source")
	}
	res, err := Process(string(data), settings)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return res, nil
}

func process(src string, settings Settings) (*Result, error) {
	s := expr.NewSession(settings.Session)
	defer s.Close()

	defs, err := parser.ParseDefinitions(s, src)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, d := range defs {
			d.Expr.Release()
		}
	}()

	res := &Result{}
	fns := make([]backend.Function, len(defs))
	for i, d := range defs {
		c := s.Canonicalize(d.Expr)
		defer c.Release()
		fns[i] = backend.Function{Name: d.Name, Expr: c}
		res.Definitions = append(res.Definitions, Definition{
			Name:      d.Name,
			Line:      d.Line,
			Input:     d.Src,
			Canonical: c.String(),
			Params:    expr.FreeSymbols(c),
		})
	}

	if settings.EmitGo || settings.Check.Enabled {
		f, err := backend.NewTranspiler().TranspileFile(settings.Package, fns)
		if err != nil {
			return nil, err
		}
		if res.GoSource, err = backend.Source(f); err != nil {
			return nil, err
		}
	}
	if settings.Check.Enabled {
		if err := check(res, defs, settings); err != nil {
			return nil, err
		}
	}

	res.Stats = s.Stats()
	logger.Info("processed source", "definitions", len(defs), "live_nodes", s.LiveNodes(),
		"cache_hits", res.Stats.CacheHits, "cache_stores", res.Stats.CacheStores)
	return res, nil
}

// check runs every generated function at random points and compares it
// with a direct evaluation of the parsed, uncanonicalized input.
func check(res *Result, defs []parser.Definition, settings Settings) error {
	prog, err := backend.Interpret(settings.Package, res.GoSource)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(settings.Check.Seed, uint64(len(defs))))
	for i, d := range defs {
		out := &res.Definitions[i]
		inputSymbols := expr.FreeSymbols(d.Expr)
		for range settings.Check.Points {
			vars := make(map[string]float64, len(inputSymbols))
			for _, name := range inputSymbols {
				// positive, so logs and real powers of symbols stay defined
				vars[name] = 0.5 + 2*rng.Float64()
			}
			want, err := expr.Evaluate(d.Expr, expr.NewEnv(vars))
			if err != nil {
				return errors.Wrapf(err, "line %d", d.Line)
			}
			if !want.IsFinite() {
				continue
			}
			args := make([]float64, len(out.Params))
			for j, p := range out.Params {
				args[j] = vars[p]
			}
			got, err := prog.Call(d.Name, args...)
			if err != nil {
				return errors.Wrapf(err, "line %d", d.Line)
			}
			rel := math.Abs(got-want.Float64()) / math.Max(1, math.Abs(want.Float64()))
			out.MaxRelError = max(out.MaxRelError, rel)
			if rel > settings.Check.Tolerance || math.IsNaN(got) {
				return errors.Wrapf(ErrMismatch, "line %d: %s gives %v, %s gives %v at %v",
					d.Line, out.Input, want, out.Canonical, got, vars)
			}
		}
	}
	return nil
}

// WriteModule writes the generated Go source of res as a module in dir.
func WriteModule(dir string, res *Result, settings Settings) error {
	if res.GoSource == "" {
		return errors.New("no Go source was generated")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	goMod := fmt.Sprintf("module %s\n\ngo 1.23.3\n", settings.Package)
	if err := os.WriteFile(path.Join(dir, "go.mod"), []byte(goMod), 0o644); err != nil {
		return errors.Wrap(err, "writing go.mod")
	}
	file := path.Join(dir, settings.Package+".go")
	if err := os.WriteFile(file, []byte(res.GoSource), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", file)
	}
	return nil
}

// WriteTo prints one `name = canonical` line per definition, followed by
// the generated Go source if there is any.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	for _, d := range r.Definitions {
		fmt.Fprintf(&sb, "%s = %s\n", d.Name, d.Canonical)
	}
	if r.GoSource != "" {
		sb.WriteString("\n")
		sb.WriteString(r.GoSource)
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}
