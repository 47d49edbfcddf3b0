package compiler

import (
	"strings"
	"testing"
)

func mustParse(t *testing.T, ctx *parseContext, text string) *Expr {
	t.Helper()
	expr, err := parseExpression(text, ctx, 0)
	if err != nil {
		t.Fatalf("parse(%q) failed: %v", text, err)
	}
	return expr
}

func TestStringPlusNumber(t *testing.T) {
	ctx := testCtx()
	declare(ctx, "a", TypeString, "Str0")

	expr := mustParse(t, ctx, `a+1`)
	if expr.Type != TypeString {
		t.Errorf("type = %s, want string", expr.Type)
	}
	if expr.Text != "Str0+1" {
		t.Errorf("text = %q, want Str0+1", expr.Text)
	}
}

func TestStringRejectsNonPlusOperator(t *testing.T) {
	ctx := testCtx()
	declare(ctx, "a", TypeString, "Str0")

	_, err := parseExpression(`a*2`, ctx, 0)
	if err == nil {
		t.Fatal("string * number should fail")
	}
	if err.Kind != ErrDataType {
		t.Errorf("kind = %v, want D", err.Kind)
	}
	if !strings.Contains(err.Message, "*") {
		t.Errorf("message %q should cite the operator", err.Message)
	}
}

func TestStaticTypeForbidsOperators(t *testing.T) {
	ctx := testCtx()
	declare(ctx, "p1", TypePicture, "Pic0")
	declare(ctx, "p2", TypePicture, "Pic1")

	if _, err := parseExpression("p1+p2", ctx, 0); err == nil {
		t.Fatal("picture + picture should fail")
	} else if err.Kind != ErrDataType {
		t.Errorf("kind = %v, want D", err.Kind)
	}

	// A bare reference is fine.
	expr := mustParse(t, ctx, "p1")
	if expr.Type != TypePicture || !expr.Static {
		t.Errorf("bare picture reference: type=%s static=%v", expr.Type, expr.Static)
	}
}

func TestNumberScalesNonStaticTypes(t *testing.T) {
	ctx := testCtx()
	declare(ctx, "xs", TypeList, "L1")

	expr := mustParse(t, ctx, "2*xs")
	if expr.Type != TypeList {
		t.Errorf("2*list type = %s, want list", expr.Type)
	}
}

func TestTrueTypeClash(t *testing.T) {
	ctx := testCtx()
	declare(ctx, "s", TypeString, "Str0")
	declare(ctx, "xs", TypeList, "L1")

	_, err := parseExpression("s+xs", ctx, 0)
	if err == nil {
		t.Fatal("string + list should fail")
	}
	if err.Kind != ErrTypeMismatch {
		t.Errorf("kind = %v, want T", err.Kind)
	}
}

func TestReparseIsIdempotent(t *testing.T) {
	ctx := testCtx()
	declare(ctx, "x", TypeNumber, "A")
	declare(ctx, "xs", TypeList, "L1")

	for _, src := range []string{"pi+1", "x*2+3", "2*xs", `"a"+x`, "sin(x)+cos(x)", "1&2", "1^xor^2"} {
		first := mustParse(t, ctx, src)
		second := mustParse(t, ctx, first.Text)
		if second.Type != first.Type {
			t.Errorf("%q: reparse type %s != original %s", src, second.Type, first.Type)
		}
		if second.Text != first.Text {
			t.Errorf("%q: reparse text %q != %q", src, second.Text, first.Text)
		}
	}
}

func TestAliasSubstitutionInPlace(t *testing.T) {
	ctx := testCtx()
	declare(ctx, "total", TypeNumber, "B")

	expr := mustParse(t, ctx, "total+total")
	if expr.Text != "B+B" {
		t.Errorf("text = %q, want B+B", expr.Text)
	}
}

func TestMultiplicativeFolding(t *testing.T) {
	ctx := testCtx()

	expr := mustParse(t, ctx, "1+2*3")
	if expr.nOperands != 2 {
		t.Errorf("operand count = %d, want 2 after folding", expr.nOperands)
	}
	if len(expr.Parts) != 1 || expr.Parts[0].Text != "2*3" {
		t.Errorf("parts = %+v, want one part 2*3", expr.Parts)
	}
	if expr.Text != "1+2*3" {
		t.Errorf("text = %q", expr.Text)
	}
}

func TestTrivialGroupFoldsInline(t *testing.T) {
	ctx := testCtx()

	expr := mustParse(t, ctx, "(5)+1")
	if expr.Text != "5+1" {
		t.Errorf("text = %q, want 5+1", expr.Text)
	}
}

func TestGroupedSubExpressionBecomesPart(t *testing.T) {
	ctx := testCtx()

	expr := mustParse(t, ctx, "(1+2)*3")
	if expr.Text != "(1+2)*3" {
		t.Errorf("text = %q", expr.Text)
	}
	if len(expr.Parts) < 1 {
		t.Error("grouped sub-expression should produce a part")
	}
}

func TestCallArityErrors(t *testing.T) {
	ctx := testCtx()

	_, err := parseExpression("round(1,2,3)", ctx, 0)
	if err == nil {
		t.Fatal("round with 3 args should fail")
	}
	if err.Kind != ErrArgument {
		t.Errorf("kind = %v, want A", err.Kind)
	}
	if !strings.Contains(err.Message, "round") {
		t.Errorf("message %q should name the function", err.Message)
	}

	_, err = parseExpression(`sub("ab",1)`, ctx, 0)
	if err == nil {
		t.Fatal("sub with 2 args should fail")
	}
	if err.Kind != ErrArgument {
		t.Errorf("kind = %v, want A", err.Kind)
	}
}

func TestCallArgumentTypeMismatch(t *testing.T) {
	ctx := testCtx()

	_, err := parseExpression("sub(1,2,3)", ctx, 0)
	if err == nil {
		t.Fatal("sub(number,...) should fail")
	}
	if err.Kind != ErrTypeMismatch {
		t.Errorf("kind = %v, want T", err.Kind)
	}
	if !strings.Contains(err.Message, "argument 1") {
		t.Errorf("message %q should cite argument 1", err.Message)
	}
}

func TestOptionalArgumentsMayBeOmitted(t *testing.T) {
	ctx := testCtx()

	expr := mustParse(t, ctx, "round(1.5)")
	if expr.Type != TypeNumber {
		t.Errorf("type = %s, want number", expr.Type)
	}

	expr = mustParse(t, ctx, "round(1.5,2)")
	if expr.Text != "round(1.5,2)" {
		t.Errorf("text = %q", expr.Text)
	}
}

func TestUndeclaredNameIsReferenceError(t *testing.T) {
	ctx := testCtx()

	_, err := parseExpression("foo+1", ctx, 0)
	if err == nil {
		t.Fatal("undeclared name should fail")
	}
	if err.Kind != ErrReference {
		t.Errorf("kind = %v, want R", err.Kind)
	}

	_, err = parseExpression("nosuch(1)", ctx, 0)
	if err == nil {
		t.Fatal("unknown function should fail")
	}
	if err.Kind != ErrReference {
		t.Errorf("kind = %v, want R", err.Kind)
	}
}

func TestUnterminatedConstructs(t *testing.T) {
	ctx := testCtx()
	for _, src := range []string{`"abc`, "sin(1", "(1+2", "1+"} {
		_, err := parseExpression(src, ctx, 0)
		if err == nil {
			t.Errorf("%q should fail", src)
			continue
		}
		if err.Kind != ErrSyntax {
			t.Errorf("%q: kind = %v, want S", src, err.Kind)
		}
	}
}

func TestErrorColumnsAccumulateThroughNesting(t *testing.T) {
	ctx := testCtx()

	// The undefined name sits at 0-based offset 8 inside the line.
	_, err := parseExpression("1+2+sin(bogus)", ctx, 0)
	if err == nil {
		t.Fatal("expected reference error")
	}
	if err.Column != 9 {
		t.Errorf("column = %d, want 9", err.Column)
	}
}

func TestWordOperators(t *testing.T) {
	ctx := testCtx()

	expr := mustParse(t, ctx, "1^and^2")
	if expr.Text != "1 and 2" {
		t.Errorf("text = %q, want \"1 and 2\"", expr.Text)
	}

	expr = mustParse(t, ctx, "1&2|3")
	if expr.Text != "1 and 2 or 3" {
		t.Errorf("text = %q", expr.Text)
	}

	ctxStr := testCtx()
	declare(ctxStr, "s", TypeString, "Str0")
	if _, err := parseExpression("s&s", ctxStr, 0); err == nil {
		t.Error("word operator on strings should fail")
	}
}

func TestAdjacentOperandsRejected(t *testing.T) {
	ctx := testCtx()
	for _, src := range []string{`(1)(2)`, `(1)"a"`, `(1){2}`, `(1)[[1]]`, `{1}{2}`} {
		_, err := parseExpression(src, ctx, 0)
		if err == nil {
			t.Errorf("%q should fail", src)
			continue
		}
		if err.Kind != ErrSyntax {
			t.Errorf("%q: kind = %v, want S", src, err.Kind)
		}
	}
}

func TestSpacedWordFormsReparse(t *testing.T) {
	ctx := testCtx()

	first := mustParse(t, ctx, "1&2|3")
	if first.Text != "1 and 2 or 3" {
		t.Fatalf("text = %q", first.Text)
	}
	second := mustParse(t, ctx, first.Text)
	if second.Text != first.Text {
		t.Errorf("reparse text = %q, want %q", second.Text, first.Text)
	}
	if second.Type != TypeNumber {
		t.Errorf("reparse type = %s, want number", second.Type)
	}
}

func TestInstructionCallShape(t *testing.T) {
	ctx := testCtx()
	declare(ctx, "x", TypeNumber, "A")

	expr := mustParse(t, ctx, "Disp(x)")
	if !expr.Instruction {
		t.Error("Disp call should be flagged as instruction")
	}
	if expr.Type != TypeInstruction {
		t.Errorf("type = %s, want instruction", expr.Type)
	}
}

func TestPointerParameterRejectsValue(t *testing.T) {
	ctx := testCtx()
	declare(ctx, "x", TypeNumber, "A")
	declare(ctx, "s", TypeString, "Str0")

	// For's first parameter is a number variable reference.
	if _, err := parseExpression("For(x,1,10)", ctx, 0); err != nil {
		t.Errorf("For with declared number variable failed: %v", err)
	}
	if _, err := parseExpression("For(5,1,10)", ctx, 0); err == nil {
		t.Error("For with a literal counter should fail")
	}
	if _, err := parseExpression("For(s,1,10)", ctx, 0); err == nil {
		t.Error("For with a string variable should fail")
	}
}

func TestLabelParameter(t *testing.T) {
	ctx := testCtx()

	if _, err := parseExpression("Goto(A1)", ctx, 0); err != nil {
		t.Errorf("Goto A1 failed: %v", err)
	}
	if _, err := parseExpression("Goto(toolong)", ctx, 0); err == nil {
		t.Error("Goto with a long label should fail")
	}
}

func TestUnnativeCallCollapsesToAns(t *testing.T) {
	ctx := testCtx()
	ctx.funcs["double"] = &UserFunc{
		Name:    "double",
		Returns: TypeNumber,
		Params:  []UserParam{{Name: "v", Type: TypeNumber}},
		Body:    []string{"v*2"},
	}

	expr := mustParse(t, ctx, "double(4)+1")
	if len(expr.Unnative) != 1 {
		t.Fatalf("unnative calls = %d, want 1", len(expr.Unnative))
	}
	call := expr.Unnative[0]
	if call.Name != "double" || len(call.Args) != 1 || call.Args[0] != "4" {
		t.Errorf("unexpected call record: %+v", call)
	}
	if expr.Text != "Ans+1" {
		t.Errorf("text = %q, want Ans+1", expr.Text)
	}
}
