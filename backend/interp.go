package backend

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Program is generated Go source loaded into a yaegi interpreter.
type Program struct {
	i     *interp.Interpreter
	pkg   string
	funcs map[string]reflect.Value
}

// Interpret loads src, a file of package pkgName, into a fresh interpreter.
func Interpret(pkgName, src string) (*Program, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, errors.Wrap(err, "loading the Go standard library into the interpreter")
	}
	if _, err := i.Eval(src); err != nil {
		return nil, errors.Wrapf(err, "interpreting generated source:\n%s", src)
	}
	return &Program{i: i, pkg: pkgName, funcs: map[string]reflect.Value{}}, nil
}

// Call runs the function emitted for the definition name.
func (p *Program) Call(name string, args ...float64) (float64, error) {
	fn, ok := p.funcs[name]
	if !ok {
		v, err := p.i.Eval(p.pkg + "." + funcName(name))
		if err != nil {
			return 0, errors.Wrapf(err, "looking up %s", name)
		}
		if v.Kind() != reflect.Func {
			return 0, errors.Errorf("%s is a %s, not a function", name, v.Kind())
		}
		fn = v
		p.funcs[name] = fn
	}
	if want := fn.Type().NumIn(); want != len(args) {
		return 0, errors.Errorf("%s takes %d arguments, got %d", name, want, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		in[i] = reflect.ValueOf(a)
	}
	out := fn.Call(in)
	return out[0].Float(), nil
}
