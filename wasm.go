//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cottand/symdag/symdag"
)

func main() {
	js.Global().Set("Canonicalize", js.FuncOf(symdag.Canonicalize))
	js.Global().Set("InterpretGo", symdag.InterpretGo)

	// wait indefinitely so that Go does not terminate execution
	// and the function remains available
	<-make(chan struct{})
}
