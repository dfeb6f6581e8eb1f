package parser

import (
	"fmt"
	"go/scanner"
	"go/token"
)

// SyntaxError locates a problem in the parsed source. Line and Column are
// 1-based, Offset counts bytes from the start of the source.
type SyntaxError struct {
	Line   int
	Column int
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

// at places the position pos of an expression parsed on its own into the
// line it was read from: start is the byte offset of the expression within
// the whole source and column its 1-based column on line.
func at(pos token.Position, line, column, start int, msg string) *SyntaxError {
	return &SyntaxError{
		Line:   line,
		Column: column + pos.Column - 1,
		Offset: start + pos.Offset,
		Msg:    msg,
	}
}

func fromScanner(err error, line, column, start int) error {
	list, ok := err.(scanner.ErrorList)
	if !ok || len(list) == 0 {
		return err
	}
	first := list[0]
	return at(first.Pos, line, column, start, first.Msg)
}
