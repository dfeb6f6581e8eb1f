package parser

import (
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"github.com/cottand/symdag/expr"
	"github.com/cottand/symdag/internal/log"
	"github.com/pkg/errors"
)

var logger = log.DefaultLogger.With("section", "parser")

// Parse reads one expression written in Go syntax and assembles it in s.
// The result is not canonicalized yet; the caller owns it.
func Parse(s *expr.Session, src string) (expr.Expr, error) {
	return parseAt(s, src, 1, 1, 0)
}

func parseAt(s *expr.Session, src string, line, column, start int) (expr.Expr, error) {
	fset := token.NewFileSet()
	tree, err := parser.ParseExprFrom(fset, "", src, 0)
	if err != nil {
		return expr.Expr{}, errors.Wrap(fromScanner(err, line, column, start), "parsing expression")
	}
	l := &listener{s: s, fset: fset, line: line, column: column, start: start}
	e, err := l.build(tree)
	if err != nil {
		return expr.Expr{}, errors.Wrap(err, "building expression")
	}
	return e, nil
}

// Definition is one named expression of a source file.
type Definition struct {
	Name string
	Expr expr.Expr
	Line int
	Src  string
}

// ParseDefinitions reads one expression per line. A line is either
// `name = expression` or a bare expression, which is named after its line
// as in e3. Blank lines and lines starting with # or // are skipped.
//
// On error, the definitions parsed so far are released.
func ParseDefinitions(s *expr.Session, src string) ([]Definition, error) {
	var defs []Definition
	release := func() {
		for _, d := range defs {
			d.Expr.Release()
		}
	}
	seen := map[string]int{}
	offset := 0
	for i, text := range strings.Split(src, "\n") {
		lineNo, lineStart := i+1, offset
		offset += len(text) + 1

		body := strings.TrimRight(text, " \t\r")
		trimmed := strings.TrimLeft(body, " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
			continue
		}
		name, exprStart := nameOf(body)
		if name == "" {
			name = "e" + strconv.Itoa(lineNo)
		}
		if prev, ok := seen[name]; ok {
			release()
			return nil, &SyntaxError{
				Line:   lineNo,
				Column: 1,
				Offset: lineStart,
				Msg:    "redefinition of " + name + ", first defined on line " + strconv.Itoa(prev),
			}
		}
		seen[name] = lineNo

		e, err := parseAt(s, body[exprStart:], lineNo, exprStart+1, lineStart+exprStart)
		if err != nil {
			release()
			return nil, err
		}
		logger.Debug("parsed definition", "name", name, "line", lineNo)
		defs = append(defs, Definition{Name: name, Expr: e, Line: lineNo, Src: strings.TrimSpace(body[exprStart:])})
	}
	return defs, nil
}

// nameOf splits `name = expression`, returning the name and the offset of
// the expression in line. Comparisons such as a == b are not definitions.
func nameOf(line string) (string, int) {
	left, right, found := strings.Cut(line, "=")
	if !found || strings.HasPrefix(right, "=") {
		return "", 0
	}
	name := strings.TrimSpace(left)
	if !token.IsIdentifier(name) {
		return "", 0
	}
	start := len(left) + 1
	for start < len(line) && (line[start] == ' ' || line[start] == '\t') {
		start++
	}
	return name, start
}
