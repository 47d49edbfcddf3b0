package compiler

import "testing"

func TestMatrixLiteralWellFormed(t *testing.T) {
	rows, err := parseMatrixLiteral("[[1,2][3,4]]")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for i, row := range rows {
		if len(row) != 2 {
			t.Errorf("row %d has %d elements, want 2", i, len(row))
		}
	}
	if rows[0][0] != "1" || rows[1][1] != "4" {
		t.Errorf("unexpected row contents: %v", rows)
	}
}

func TestMatrixLiteralKeepsRawTokens(t *testing.T) {
	rows, err := parseMatrixLiteral("[[1.5,-2][0,3.25]]")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if rows[0][0] != "1.5" || rows[0][1] != "-2" || rows[1][1] != "3.25" {
		t.Errorf("elements not preserved as text: %v", rows)
	}
}

func TestMatrixLiteralWidthMismatch(t *testing.T) {
	_, err := parseMatrixLiteral("[[1,2][3]]")
	if err == nil {
		t.Fatal("width mismatch should fail")
	}
	if err.Kind != ErrSyntax {
		t.Errorf("kind = %v, want S", err.Kind)
	}
}

func TestMatrixLiteralMalformed(t *testing.T) {
	cases := []string{
		"[[1,[2]][3,4]]", // nested row
		"[[1,2] x [3,4]]", // content between rows
		"[[1,]]",          // dangling separator
		"[[]]",            // empty row
		"[ ]",             // no rows
		"[[1,a]]",         // non-numeric element
	}
	for _, src := range cases {
		if _, err := parseMatrixLiteral(src); err == nil {
			t.Errorf("%q should fail", src)
		}
	}
}
