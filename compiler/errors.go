package compiler

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a compilation failure.
type ErrorKind int

const (
	ErrSyntax       ErrorKind = iota // malformed construct, unknown symbol, unclosed bracket
	ErrTypeMismatch                  // operand/parameter type incompatible with context
	ErrDataType                      // operator used on an unsupported value category
	ErrArgument                      // wrong arity in a call
	ErrReference                     // use of an undeclared name or function
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "S"
	case ErrTypeMismatch:
		return "T"
	case ErrDataType:
		return "D"
	case ErrArgument:
		return "A"
	case ErrReference:
		return "R"
	}
	return "?"
}

// CompileError is the single failure value a compilation produces. Line and
// Column are 1-based once the driver has stamped them; inside the expression
// engine Column accumulates through nested parse offsets. Content holds the
// rendered caret diagnostic and is the only field appended to after creation.
type CompileError struct {
	Kind    ErrorKind
	Line    int
	Column  int
	Message string
	Content string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("ERROR : At line %d, column %d : %s", e.Line, e.Column, e.Message)
}

func errf(kind ErrorKind, col int, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Kind:    kind,
		Column:  col,
		Message: fmt.Sprintf(format, args...),
	}
}

// shift moves the error's column by the caller's base offset, so columns
// stay correct across nested recursive parses.
func (e *CompileError) shift(base int) *CompileError {
	e.Column += base
	return e
}

// render builds the fixed-width caret diagnostic against the offending
// source line: a window of the line clamped to 20 characters either side of
// the error column, then a caret under the column, then the message.
func (e *CompileError) render(sourceLine string) *CompileError {
	col := e.Column
	if col < 1 {
		col = 1
	}
	idx := col - 1 // 0-based cursor into the line
	if idx > len(sourceLine) {
		idx = len(sourceLine)
	}

	start := idx - 20
	if start < 0 {
		start = 0
	}
	end := idx + 20
	if end > len(sourceLine) {
		end = len(sourceLine)
	}

	var sb strings.Builder
	sb.WriteString(sourceLine[start:end])
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", idx-start))
	sb.WriteString("^ ")
	sb.WriteString(e.Error())
	e.Content = sb.String()
	return e
}
