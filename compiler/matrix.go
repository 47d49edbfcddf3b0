package compiler

import "strings"

/*
   Matrix literal parsing.

   A literal looks like [[1,2][3,4]]: an outer bracket pair wrapping a
   sequence of bracketed rows. Rows cannot nest, every row must match the
   first row's width, and nothing may appear between rows except whitespace.
   The column counter runs across the whole literal so diagnostics point at
   the offending character, not a per-row offset.
*/

// parseMatrixLiteral returns the rows of a matrix literal as raw numeric
// token strings. Elements are left as text; the output formatter re-emits
// them verbatim.
func parseMatrixLiteral(text string) ([][]string, *CompileError) {
	if len(text) < 2 || text[0] != '[' {
		return nil, errf(ErrSyntax, 1, "matrix literal must open with [")
	}
	if text[len(text)-1] != ']' {
		return nil, errf(ErrSyntax, len(text), "matrix literal must close with ]")
	}

	inner := text[1 : len(text)-1]
	var rows [][]string
	var row []string
	var elem strings.Builder
	inRow := false
	width := -1

	// col is 1-based over the whole literal; inner starts at column 2.
	col := 1

	flushElem := func() *CompileError {
		tok := strings.TrimSpace(elem.String())
		elem.Reset()
		if tok == "" {
			return errf(ErrSyntax, col, "empty matrix element")
		}
		if !numericPattern.MatchString(tok) {
			return errf(ErrTypeMismatch, col-len(tok), "matrix element %q is not a number", tok)
		}
		row = append(row, tok)
		return nil
	}

	for i := 0; i < len(inner); i++ {
		col++
		ch := inner[i]
		switch ch {
		case '[':
			if inRow {
				return nil, errf(ErrSyntax, col, "matrix rows cannot nest")
			}
			inRow = true
			row = nil
		case ']':
			if !inRow {
				return nil, errf(ErrSyntax, col, "unexpected ] outside a matrix row")
			}
			if err := flushElem(); err != nil {
				return nil, err
			}
			if width < 0 {
				width = len(row)
			} else if len(row) != width {
				return nil, errf(ErrSyntax, col, "matrix row has %d elements, expected %d", len(row), width)
			}
			rows = append(rows, row)
			inRow = false
		case ',':
			if !inRow {
				return nil, errf(ErrSyntax, col, "separator outside a matrix row")
			}
			if err := flushElem(); err != nil {
				return nil, err
			}
		case ' ', '\t':
			if inRow {
				elem.WriteByte(ch)
			}
		default:
			if !inRow {
				return nil, errf(ErrSyntax, col, "content outside a matrix row")
			}
			elem.WriteByte(ch)
		}
	}

	if inRow {
		return nil, errf(ErrSyntax, col, "unclosed matrix row")
	}
	if len(rows) == 0 {
		return nil, errf(ErrSyntax, 1, "empty matrix literal")
	}
	return rows, nil
}
