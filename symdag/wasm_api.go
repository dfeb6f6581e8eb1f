//go:build js && wasm

package symdag

import (
	"bytes"
	"fmt"
	"go/build"
	"syscall/js"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Canonicalize processes the source in args[0] with default settings and
// the generated Go enabled.
//
// output: { error: string } | { canonical: string, goOutput: string }
func Canonicalize(_ js.Value, args []js.Value) (ret any) {
	errorObj := func(err string) any {
		return js.ValueOf(map[string]any{
			"error": err,
		})
	}
	defer func() {
		if r := recover(); r != nil {
			ret = errorObj("symdag panicked: " + fmt.Sprint(r))
		}
	}()
	if len(args) != 1 {
		return errorObj(fmt.Sprintf("expected 1 argument, got %d", len(args)))
	}

	settings := DefaultSettings()
	settings.EmitGo = true
	res, err := Process(args[0].String(), settings)
	if err != nil {
		return errorObj(err.Error())
	}

	var canonical bytes.Buffer
	for _, d := range res.Definitions {
		fmt.Fprintf(&canonical, "%s = %s\n", d.Name, d.Canonical)
	}
	return js.ValueOf(map[string]any{
		"canonical": canonical.String(),
		"goOutput":  res.GoSource,
	})
}

// interpretGo takes a Go program as a string and returns the stdout, if any
func interpretGo(_ js.Value, args []js.Value) (ret any, err error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	stdout := bytes.NewBuffer(nil)

	i := interp.New(interp.Options{GoPath: build.Default.GOPATH, Stdout: stdout, Stderr: stdout})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("error loading Go interpreter: %w", err)
	}
	prog, err := i.Compile(args[0].String())
	if err != nil {
		return nil, fmt.Errorf("error during evaluation: %w", err)
	}
	if _, err := i.Execute(prog); err != nil {
		return nil, fmt.Errorf("error during execution: %w", err)
	}
	return stdout.String(), nil
}

// asPromise wraps a JS-API function that may fail into one returning a
// promise, rejected with a JS Error when the function fails or panics.
func asPromise(function func(js.Value, []js.Value) (any, error)) any {
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		handler := js.FuncOf(func(_ js.Value, promiseArgs []js.Value) any {
			resolve := promiseArgs[0]
			reject := promiseArgs[1]

			go func() {
				defer func() {
					if r := recover(); r != nil {
						errorObject := js.Global().Get("Error").New(fmt.Sprintf("%s", r))
						reject.Invoke(errorObject)
					}
				}()

				data, err := function(this, args)
				if err != nil {
					reject.Invoke(js.Global().Get("Error").New(err.Error()))
				} else {
					resolve.Invoke(js.ValueOf(data))
				}
			}()

			return nil
		})
		return js.Global().Get("Promise").New(handler)
	})
}

var InterpretGo = asPromise(interpretGo)
