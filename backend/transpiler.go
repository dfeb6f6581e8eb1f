package backend

import (
	"bytes"
	"go/format"
	"go/token"
	"log/slog"

	"github.com/cottand/symdag/expr"
	"github.com/cottand/symdag/internal/log"
	"github.com/pkg/errors"

	goast "go/ast"
)

var ErrUnsupported = errors.New("cannot be expressed in Go")

// Function is a named canonical expression to emit as a Go function.
type Function struct {
	Name string
	Expr expr.Expr
}

// Transpiler turns canonical expressions into Go functions of float64
// parameters, one per free symbol. Subexpressions shared inside a function
// are computed once into temporaries.
type Transpiler struct {
	usesMath bool

	// per-function state
	temps []goast.Stmt
	done  map[uint64]goast.Expr

	*slog.Logger
}

func NewTranspiler() *Transpiler {
	return &Transpiler{
		Logger: log.DefaultLogger.With("section", "transpiler"),
	}
}

func (tp *Transpiler) TranspileFile(pkgName string, fns []Function) (*goast.File, error) {
	tp.usesMath = false
	var decls []goast.Decl
	for _, fn := range fns {
		decl, _, err := tp.TranspileFunc(fn.Name, fn.Expr)
		if err != nil {
			return nil, errors.Wrapf(err, "transpiling %s", fn.Name)
		}
		decls = append(decls, decl)
	}
	if tp.usesMath {
		imports := &goast.GenDecl{Tok: token.IMPORT, Specs: []goast.Spec{
			&goast.ImportSpec{Path: &goast.BasicLit{Kind: token.STRING, Value: `"math"`}},
		}}
		decls = append([]goast.Decl{imports}, decls...)
	}
	return &goast.File{
		Name:      goast.NewIdent(pkgName),
		GoVersion: goVersion,
		Decls:     decls,
	}, nil
}

// TranspileFunc emits func F_name(v_a, v_b float64) float64 for e, with
// parameters for the free symbols of e in sorted order. It returns the
// symbols in parameter order.
func (tp *Transpiler) TranspileFunc(name string, e expr.Expr) (*goast.FuncDecl, []string, error) {
	if !e.Canonical() {
		return nil, nil, errors.Errorf("%s is not canonical", name)
	}
	tp.temps = nil
	tp.done = make(map[uint64]goast.Expr)

	symbols := expr.FreeSymbols(e)
	params := &goast.FieldList{}
	if len(symbols) > 0 {
		field := &goast.Field{Type: goast.NewIdent("float64")}
		for _, sym := range symbols {
			field.Names = append(field.Names, goast.NewIdent(paramName(sym)))
		}
		params.List = []*goast.Field{field}
	}

	result, err := tp.transpileBody(e)
	if err != nil {
		return nil, nil, err
	}
	tp.Debug("transpiled function", "name", name, "params", len(symbols), "temporaries", len(tp.temps))

	body := append(tp.temps, &goast.ReturnStmt{Results: []goast.Expr{result}})
	return &goast.FuncDecl{
		Name: goast.NewIdent(funcName(name)),
		Type: &goast.FuncType{
			Params:  params,
			Results: &goast.FieldList{List: []*goast.Field{{Type: goast.NewIdent("float64")}}},
		},
		Body: &goast.BlockStmt{List: body},
	}, symbols, nil
}

// Source prints f as gofmt-formatted Go.
func Source(f *goast.File) (string, error) {
	var buf bytes.Buffer
	if err := format.Node(&buf, token.NewFileSet(), f); err != nil {
		return "", errors.Wrap(err, "printing generated Go")
	}
	return buf.String(), nil
}
