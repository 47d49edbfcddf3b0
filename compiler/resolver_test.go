package compiler

import "testing"

func testCtx() *parseContext {
	return &parseContext{binds: newBindings(), funcs: make(map[string]*UserFunc)}
}

func declare(ctx *parseContext, name string, t Type, alias string) {
	ctx.binds.vars[name] = t
	ctx.binds.aliases[name] = alias
}

func TestSlotNameGrammars(t *testing.T) {
	cases := []struct {
		tok      string
		extended bool
		want     Type
	}{
		{"A", false, TypeNumber},
		{"Z", false, TypeNumber},
		{"Str0", false, TypeString},
		{"Str9", false, TypeString},
		{"L1", false, TypeList},
		{"LSCORES", false, TypeList},
		{"[B]", false, TypeMatrix},
		{"Y5", false, TypeYVar},
		{"Pic3", false, TypePicture},
		{"GDB7", false, TypeGDB},
		{"prgmFOO", true, TypeProgram},
		{"appvSAVE", true, TypeAppVar},
		{"groupX", true, TypeGroup},
		{"appMirage", true, TypeApplication},
	}
	for _, tc := range cases {
		got, ok := slotType(tc.tok, tc.extended)
		if !ok {
			t.Errorf("slotType(%q) did not match", tc.tok)
			continue
		}
		if got != tc.want {
			t.Errorf("slotType(%q) = %s, want %s", tc.tok, got, tc.want)
		}
	}
}

func TestSlotNameGrammarsReject(t *testing.T) {
	for _, tok := range []string{"AA", "a", "Str10", "LTOOLONGX", "[b]", "[AB]", "Y10", "Pic", "prgmX"} {
		if tok == "prgmX" {
			// extended prefixes only apply when extended is allowed
			if _, ok := slotType(tok, false); ok {
				t.Errorf("slotType(%q, false) should not match", tok)
			}
			continue
		}
		if got, ok := slotType(tok, true); ok {
			t.Errorf("slotType(%q) = %s, want no match", tok, got)
		}
	}
}

func TestResolveDeclaredVariable(t *testing.T) {
	ctx := testCtx()
	declare(ctx, "score", TypeList, "L1")

	got, err := resolveType("score", false, ctx)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != TypeList {
		t.Errorf("got %s, want list", got)
	}
}

func TestResolveLiterals(t *testing.T) {
	ctx := testCtx()
	cases := []struct {
		tok  string
		want Type
	}{
		{"42", TypeNumber},
		{"3.25", TypeNumber},
		{`"hello"`, TypeString},
		{"{1,2,3}", TypeList},
		{"[[1,2][3,4]]", TypeMatrix},
	}
	for _, tc := range cases {
		got, err := resolveType(tc.tok, false, ctx)
		if err != nil {
			t.Errorf("resolve(%q) failed: %v", tc.tok, err)
			continue
		}
		if got != tc.want {
			t.Errorf("resolve(%q) = %s, want %s", tc.tok, got, tc.want)
		}
	}
}

func TestResolveListLiteralBadElement(t *testing.T) {
	ctx := testCtx()
	_, err := resolveType(`{1,"x",3}`, false, ctx)
	if err == nil {
		t.Fatal("list with a string element should fail")
	}
	if err.Kind != ErrTypeMismatch {
		t.Errorf("kind = %v, want T", err.Kind)
	}
	if err.Column != 1 {
		t.Errorf("column offset = %d, want the failing element index 1", err.Column)
	}
}

func TestResolveExpressionFallback(t *testing.T) {
	ctx := testCtx()
	got, err := resolveType("1+2", false, ctx)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != TypeNumber {
		t.Errorf("got %s, want number", got)
	}
}

func TestResolveLoopGuard(t *testing.T) {
	ctx := testCtx()
	ctx.lastUnresolved = "@@"
	_, err := resolveType("@@", false, ctx)
	if err == nil {
		t.Fatal("repeated unresolved token should fail fast")
	}
}
