package compiler

import (
	"fmt"
	"strings"
)

/*
   UnderBasic expression engine v1.0

   - Supports:
     * Operands: numeric literals, quoted strings, {..} list literals,
       [[..]..] matrix literals, slot names, declared variables
     * Operators: + - * / plus & | and the ^and^ / ^or^ / ^xor^ word forms
     * Function and instruction calls with argument validation against the
       native signature table and the user function table
     * Grouped sub-expressions, folded back inline when trivial
     * In-place alias substitution while scanning

   - API:
     * parseExpression(text, ctx, base) (*Expr, *CompileError)
     * splitTopLevel(text, sep) []argPart
*/

// Part is a sub-expression or call record referenced by a folded operand.
type Part struct {
	Text string    // rendered text of the sub-expression
	Call *CallPart // non-nil when the part is a call
	Type Type
}

// CallPart records a function/instruction call inside an expression.
type CallPart struct {
	Name string
	Args []string // rendered argument texts
}

// UnnativeCall is a call to a user-defined function, to be inlined by the
// driver at the call site.
type UnnativeCall struct {
	Name string
	Args []string // raw argument texts, pre-substitution
}

// Expr is the result of one successful parse. Immutable once returned.
type Expr struct {
	Type        Type
	Text        string // formatted output text, aliases substituted
	Static      bool
	Instruction bool
	Operands    []string // flat operand/operator stream
	Parts       []Part
	Unnative    []UnnativeCall

	nOperands int // operand count, for the single-operand inlining fold
}

// argPart is one top-level piece of a separated list: its text and its
// 0-based offset from the start of the split string.
type argPart struct {
	text   string
	offset int
}

// splitTopLevel splits text on sep, ignoring separators nested inside
// parens, braces, brackets or string literals.
func splitTopLevel(text string, sep byte) []argPart {
	var parts []argPart
	depth := 0
	inStr := false
	start := 0
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case inStr:
			if ch == '"' {
				inStr = false
			}
		case ch == '"':
			inStr = true
		case ch == '(' || ch == '{' || ch == '[':
			depth++
		case ch == ')' || ch == '}' || ch == ']':
			depth--
		case ch == sep && depth == 0:
			parts = append(parts, argPart{text: text[start:i], offset: start})
			start = i + 1
		}
	}
	parts = append(parts, argPart{text: text[start:], offset: start})
	return parts
}

// scanBalanced returns the index of the close delimiter matching the open
// delimiter at text[open], or -1. Quotes are respected.
func scanBalanced(text string, open int) int {
	opener := text[open]
	var closer byte
	switch opener {
	case '(':
		closer = ')'
	case '{':
		closer = '}'
	case '[':
		closer = ']'
	}
	depth := 0
	inStr := false
	for i := open; i < len(text); i++ {
		ch := text[i]
		switch {
		case inStr:
			if ch == '"' {
				inStr = false
			}
		case ch == '"':
			inStr = true
		case ch == opener:
			depth++
		case ch == closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isOperator(ch byte) bool {
	switch ch {
	case '+', '-', '*', '/', '&', '|':
		return true
	}
	return false
}

// operatorText is what an operator compiles to in the output stream.
func operatorText(op byte) string {
	switch op {
	case '&':
		return " and "
	case '|':
		return " or "
	}
	return string(op)
}

// exprScan is the per-parse state of the expression engine. A fresh value
// per call; nothing here outlives the parse.
type exprScan struct {
	ctx  *parseContext
	base int // 0-based offset of src within the surrounding line
	src  string

	out      strings.Builder
	operands []string // flat operand/operator stream
	parts    []Part
	unnative []UnnativeCall

	typ        Type
	typeSet    bool
	static     bool
	instr      bool
	nOperands  int
	lastType   Type // type of the most recent operand, for folding
	prevType   Type // type of the operand before it
	prevOp     byte
	justPushed bool
}

func (s *exprScan) col(i int) int { return s.base + i + 1 }

// parseExpression parses one expression. base is the 0-based offset of text
// within the line being compiled, so error columns accumulate correctly
// through nested parses.
func parseExpression(text string, ctx *parseContext, base int) (*Expr, *CompileError) {
	s := &exprScan{ctx: ctx, base: base, src: text}

	var curTok strings.Builder
	curStart := 0
	sawSpace := false

	flush := func(end int) *CompileError {
		if curTok.Len() == 0 {
			return nil
		}
		tok := curTok.String()
		curTok.Reset()
		return s.pushToken(tok, curStart)
	}

	for i := 0; i <= len(text); i++ {
		var ch byte = '\n' // sentinel operator flushes the last operand
		if i < len(text) {
			ch = text[i]
		}

		switch {
		case ch == ' ' || ch == '\t':
			// Spaced word operators appear in formatted output; read them
			// back so rendered text re-parses to the same expression.
			if w := wordOperatorAt(text, i); w != "" && (curTok.Len() > 0 || s.justPushed) {
				if err := flush(i); err != nil {
					return nil, err
				}
				if err := s.applyWordOperator(w, i+1); err != nil {
					return nil, err
				}
				i += len(w) + 1
				sawSpace = false
				continue
			}
			if curTok.Len() > 0 {
				sawSpace = true
			}
			continue

		case ch == '\n':
			if err := flush(i); err != nil {
				return nil, err
			}
			if s.prevOp != 0 && !s.justPushed {
				return nil, errf(ErrSyntax, s.col(i), "missing operand after operator %q", string(s.prevOp))
			}

		case isOperator(ch):
			// A leading '-' is a sign, not an operator.
			if curTok.Len() == 0 && !s.justPushed && ch == '-' && s.nOperands == 0 {
				curStart = i
				curTok.WriteByte('-')
				sawSpace = false
				continue
			}
			if curTok.Len() == 0 && !s.justPushed {
				return nil, errf(ErrSyntax, s.col(i), "missing operand before operator %q", string(ch))
			}
			if err := flush(i); err != nil {
				return nil, err
			}
			if err := s.applyOperator(ch, i); err != nil {
				return nil, err
			}
			sawSpace = false

		case ch == '^':
			// Word-operator combination syntax: ^and^, ^or^, ^xor^.
			word, end, err := s.scanWordOperator(i)
			if err != nil {
				return nil, err
			}
			if curTok.Len() == 0 && !s.justPushed {
				return nil, errf(ErrSyntax, s.col(i), "missing operand before operator %q", word)
			}
			if ferr := flush(i); ferr != nil {
				return nil, ferr
			}
			if aerr := s.applyWordOperator(word, i); aerr != nil {
				return nil, aerr
			}
			i = end
			sawSpace = false

		case ch == '"':
			if s.justPushed || curTok.Len() > 0 {
				return nil, errf(ErrSyntax, s.col(i), "unexpected string literal")
			}
			close := strings.IndexByte(text[i+1:], '"')
			if close < 0 {
				return nil, errf(ErrSyntax, s.col(i), "unterminated string literal")
			}
			curStart = i
			curTok.WriteString(text[i : i+close+2])
			i += close + 1
			sawSpace = false

		case ch == '{' || (ch == '[' && curTok.Len() == 0):
			if s.justPushed || curTok.Len() > 0 {
				return nil, errf(ErrSyntax, s.col(i), "unexpected %q", string(ch))
			}
			j := scanBalanced(text, i)
			if j < 0 {
				return nil, errf(ErrSyntax, s.col(i), "unclosed %q", string(ch))
			}
			curStart = i
			curTok.WriteString(text[i : j+1])
			i = j
			sawSpace = false

		case ch == '(':
			if curTok.Len() > 0 {
				name := curTok.String()
				curTok.Reset()
				j, err := s.parseCall(name, curStart, i)
				if err != nil {
					return nil, err
				}
				i = j
			} else {
				if s.justPushed {
					return nil, errf(ErrSyntax, s.col(i), "unexpected %q", "(")
				}
				j, err := s.parseGroup(i)
				if err != nil {
					return nil, err
				}
				i = j
			}
			sawSpace = false

		case ch == ')':
			return nil, errf(ErrSyntax, s.col(i), "unexpected %q", ")")

		default:
			if s.justPushed || (sawSpace && curTok.Len() > 0) {
				return nil, errf(ErrSyntax, s.col(i), "unexpected token")
			}
			if curTok.Len() == 0 {
				curStart = i
			}
			curTok.WriteByte(ch)
		}
	}

	if s.nOperands == 0 {
		return nil, errf(ErrSyntax, s.col(0), "empty expression")
	}

	return &Expr{
		Type:        s.typ,
		Text:        s.out.String(),
		Static:      s.static,
		Instruction: s.instr,
		Operands:    s.operands,
		Parts:       s.parts,
		Unnative:    s.unnative,
		nOperands:   s.nOperands,
	}, nil
}

// wordOperatorAt reports the word operator spelled with surrounding spaces
// starting at the space at text[i], or "".
func wordOperatorAt(text string, i int) string {
	for _, w := range []string{"and", "or", "xor"} {
		if strings.HasPrefix(text[i+1:], w+" ") {
			return w
		}
	}
	return ""
}

// scanWordOperator reads ^word^ starting at the '^' at index i and returns
// the word plus the index of the closing '^'.
func (s *exprScan) scanWordOperator(i int) (string, int, *CompileError) {
	end := strings.IndexByte(s.src[i+1:], '^')
	if end < 0 {
		return "", 0, errf(ErrSyntax, s.col(i), "unterminated word operator")
	}
	word := s.src[i+1 : i+1+end]
	switch word {
	case "and", "or", "xor":
		return word, i + 1 + end, nil
	}
	return "", 0, errf(ErrSyntax, s.col(i), "unknown word operator %q", word)
}

// pushToken resolves a raw operand token and folds it into the running
// expression, substituting the alias of a declared variable in place.
func (s *exprScan) pushToken(tok string, start int) *CompileError {
	t, rendered, err := s.operandType(tok, start)
	if err != nil {
		return err
	}
	s.out.WriteString(rendered)
	return s.pushOperand(rendered, t, start)
}

// operandType types a single operand token and returns the text to emit
// for it (the alias for declared variables, the token itself otherwise).
func (s *exprScan) operandType(tok string, start int) (Type, string, *CompileError) {
	if t, ok := dialectTokens[tok]; ok {
		return t, tok, nil
	}
	if t, ok := slotType(tok, false); ok {
		return t, tok, nil
	}
	if t, ok := s.ctx.binds.vars[tok]; ok {
		return t, s.ctx.binds.aliases[tok], nil
	}
	if numericPattern.MatchString(tok) {
		return TypeNumber, tok, nil
	}
	if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
		return TypeString, tok, nil
	}
	if len(tok) >= 2 && tok[0] == '{' && tok[len(tok)-1] == '}' {
		t, err := resolveListLiteral(tok, s.ctx)
		if err != nil {
			return TypeInvalid, "", err.shift(s.base + start)
		}
		return t, tok, nil
	}
	if len(tok) >= 2 && tok[0] == '[' && tok[len(tok)-1] == ']' {
		if _, err := parseMatrixLiteral(tok); err != nil {
			return TypeInvalid, "", err.shift(s.base + start)
		}
		return TypeMatrix, tok, nil
	}
	if identPattern.MatchString(tok) {
		return TypeInvalid, "", errf(ErrReference, s.col(start), "variable %s is not defined", tok)
	}
	return TypeInvalid, "", errf(ErrSyntax, s.col(start), "unknown content type for %q", tok)
}

// pushOperand merges an already-typed operand into the running expression.
func (s *exprScan) pushOperand(text string, t Type, start int) *CompileError {
	if !s.typeSet {
		s.typ = t
		s.typeSet = true
		s.static = t.Static()
	} else {
		if t.Static() {
			return errf(ErrDataType, s.col(start), "type %s does not support operators", t)
		}
		if err := s.mergeType(t, start); err != nil {
			return err
		}
	}
	s.operands = append(s.operands, text)
	s.prevType = s.lastType
	s.lastType = t
	s.nOperands++
	s.justPushed = true

	// A multiplicative operator folds the two operands around it into a
	// sub-part, mimicking left-to-right evaluation grouping.
	if s.prevOp == '*' || s.prevOp == '/' {
		s.foldMultiplicative()
	}
	s.prevOp = 0
	return nil
}

func (s *exprScan) mergeType(t Type, start int) *CompileError {
	switch {
	case t == s.typ:
	case t == TypeMixed:
	case s.typ == TypeMixed:
		s.typ = t
	case t == TypeNumber:
		// number scales anything non-static; the running type stays.
	case s.typ == TypeNumber:
		s.typ = t
	default:
		return errf(ErrTypeMismatch, s.col(start), "cannot combine %s with %s", s.typ, t)
	}
	return nil
}

// foldMultiplicative replaces the two most recent operands and the operator
// between them with a synthetic reference to a new part.
func (s *exprScan) foldMultiplicative() {
	if len(s.operands) < 3 {
		return
	}
	n := len(s.operands)
	folded := s.operands[n-3] + s.operands[n-2] + s.operands[n-1]
	t := s.lastType
	if t == TypeNumber && s.prevType != TypeNumber && s.prevType != TypeInvalid {
		t = s.prevType
	}
	s.parts = append(s.parts, Part{Text: folded, Type: t})
	s.operands = append(s.operands[:n-3], folded)
	s.nOperands--
	s.lastType = t
	s.prevType = TypeInvalid
}

// applyOperator records an inline operator after validating it against the
// running type.
func (s *exprScan) applyOperator(op byte, at int) *CompileError {
	if s.static {
		return errf(ErrDataType, s.col(at), "type %s does not support operators", s.typ)
	}
	if s.typeSet && s.typ == TypeString && op != '+' {
		return errf(ErrDataType, s.col(at), "operator %q not allowed on string expressions", string(op))
	}
	if op == '&' || op == '|' {
		if s.typeSet && s.typ != TypeNumber && s.typ != TypeMixed {
			return errf(ErrDataType, s.col(at), "operator %q requires a numeric expression", string(op))
		}
	}
	s.out.WriteString(operatorText(op))
	s.operands = append(s.operands, operatorText(op))
	s.prevOp = op
	s.justPushed = false
	return nil
}

func (s *exprScan) applyWordOperator(word string, at int) *CompileError {
	if s.static {
		return errf(ErrDataType, s.col(at), "type %s does not support operators", s.typ)
	}
	if s.typeSet && s.typ != TypeNumber && s.typ != TypeMixed {
		return errf(ErrDataType, s.col(at), "operator %q requires a numeric expression", word)
	}
	text := " " + word + " "
	s.out.WriteString(text)
	s.operands = append(s.operands, text)
	s.prevOp = '&'
	s.justPushed = false
	return nil
}

// parseGroup handles a bare parenthesised sub-expression starting at the
// '(' at index open. Returns the index of the matching ')'.
func (s *exprScan) parseGroup(open int) (int, *CompileError) {
	close := scanBalanced(s.src, open)
	if close < 0 {
		return 0, errf(ErrSyntax, s.col(open), "unclosed parenthesis")
	}
	child, err := parseExpression(s.src[open+1:close], s.ctx, s.base+open+1)
	if err != nil {
		return 0, err
	}
	s.unnative = append(s.unnative, child.Unnative...)

	if child.nOperands == 1 && len(child.Parts) == 0 {
		// Trivial group: fold the single operand back inline, no parens.
		s.out.WriteString(child.Text)
		return close, s.pushOperand(child.Text, child.Type, open)
	}

	s.parts = append(s.parts, Part{Text: child.Text, Type: child.Type})
	rendered := "(" + child.Text + ")"
	s.out.WriteString(rendered)
	return close, s.pushOperand(rendered, child.Type, open)
}

// parseCall handles name( ... ) with name ending just before the '(' at
// index open. Returns the index of the matching ')'.
func (s *exprScan) parseCall(name string, nameStart, open int) (int, *CompileError) {
	close := scanBalanced(s.src, open)
	if close < 0 {
		return 0, errf(ErrSyntax, s.col(open), "unclosed parenthesis in call to %s", name)
	}
	inner := s.src[open+1 : close]

	if uf, ok := s.ctx.funcs[name]; ok {
		rawArgs, err := s.validateUnnative(uf, inner, open+1)
		if err != nil {
			return 0, err
		}
		s.unnative = append(s.unnative, UnnativeCall{Name: name, Args: rawArgs})
		// The inlined body leaves its value in the answer register; the
		// call site reads it from there.
		s.out.WriteString("Ans")
		if uf.Returns == TypeInstruction {
			s.instr = true
		}
		return close, s.pushOperand("Ans", uf.Returns, nameStart)
	}

	sig, ok := Lookup(name)
	if !ok {
		return 0, errf(ErrReference, s.col(nameStart), "unknown function %s", name)
	}
	args, err := s.validateCall(sig, inner, open+1)
	if err != nil {
		return 0, err
	}

	rendered := name + "(" + strings.Join(args, ",") + ")"
	s.out.WriteString(rendered)
	s.parts = append(s.parts, Part{
		Text: rendered,
		Call: &CallPart{Name: name, Args: args},
		Type: sig.Returns,
	})
	if sig.Returns == TypeInstruction {
		s.instr = true
	}
	return close, s.pushOperand(rendered, sig.Returns, nameStart)
}

// validateCall checks arity and argument types against a native signature
// and returns the rendered argument texts.
func (s *exprScan) validateCall(sig *Signature, inner string, innerStart int) ([]string, *CompileError) {
	return s.validateArgs(sig.Name, sig.Params, sig.MinArgs(), inner, innerStart)
}

func (s *exprScan) validateUnnative(uf *UserFunc, inner string, innerStart int) ([]string, *CompileError) {
	params := make([]ParamType, len(uf.Params))
	for i, p := range uf.Params {
		params[i] = ParamType{Base: p.Type}
	}
	if _, err := s.validateArgs(uf.Name, params, len(params), inner, innerStart); err != nil {
		return nil, err
	}
	var raw []string
	if strings.TrimSpace(inner) != "" {
		for _, part := range splitTopLevel(inner, ',') {
			raw = append(raw, strings.TrimSpace(part.text))
		}
	}
	return raw, nil
}

func (s *exprScan) validateArgs(name string, params []ParamType, minArgs int, inner string, innerStart int) ([]string, *CompileError) {
	var parts []argPart
	if strings.TrimSpace(inner) != "" {
		parts = splitTopLevel(inner, ',')
	}

	if len(parts) > len(params) {
		extra := parts[len(params)]
		return nil, errf(ErrArgument, s.col(innerStart+extra.offset),
			"too many arguments to %s (%d given, at most %d)", name, len(parts), len(params))
	}
	if len(parts) < minArgs {
		return nil, errf(ErrArgument, s.col(innerStart+len(inner)),
			"missing arguments to %s (%d given, at least %d required)", name, len(parts), minArgs)
	}

	args := make([]string, 0, len(parts))
	for i, part := range parts {
		p := params[i]
		raw := strings.TrimSpace(part.text)
		argCol := s.col(innerStart + part.offset)

		if raw == "" {
			if p.Optional {
				args = append(args, "")
				continue
			}
			return nil, errf(ErrArgument, argCol, "argument %d of %s is empty", i+1, name)
		}

		// Name-like parameters are matched textually, never evaluated.
		if p.Base == TypeUnref || p.Base == TypeLabel || p.Pointer || p.RefOnly {
			rendered, ok := s.matchTextual(raw, p)
			if !ok {
				return nil, errf(ErrTypeMismatch, argCol,
					"argument %d of %s must be %s, got %q", i+1, name, paramDesc(p), raw)
			}
			args = append(args, rendered)
			continue
		}

		arg, err := parseExpression(raw, s.ctx, innerStart+part.offset+s.base+indentOf(part.text))
		if err != nil {
			return nil, err
		}
		s.unnative = append(s.unnative, arg.Unnative...)
		if !matchValueParam(arg.Type, p) {
			return nil, errf(ErrTypeMismatch, argCol,
				"argument %d of %s must be %s, got %s", i+1, name, paramDesc(p), arg.Type)
		}
		args = append(args, arg.Text)
	}
	return args, nil
}

// indentOf counts leading whitespace trimmed off an argument, to keep
// column arithmetic honest.
func indentOf(text string) int {
	return len(text) - len(strings.TrimLeft(text, " \t"))
}

func paramDesc(p ParamType) string {
	switch {
	case p.Pointer && p.Base == TypeMixed:
		return "a variable reference"
	case p.Pointer:
		return fmt.Sprintf("a %s variable", p.Base)
	case p.RefOnly:
		return fmt.Sprintf("a %s name", p.Base)
	case p.Base == TypeLabel:
		return "a label (1-2 uppercase letters or digits)"
	case p.Base == TypeExpression:
		return "an expression"
	}
	return p.Base.String()
}

// matchTextual implements the name-like half of the match predicate:
// labels, pointer parameters and reference-only parameters. It returns the
// rendered text (the alias for a declared variable).
func (s *exprScan) matchTextual(raw string, p ParamType) (string, bool) {
	if p.Base == TypeLabel {
		return raw, labelPattern.MatchString(raw)
	}
	if p.Base == TypeUnref {
		// Any token, unchecked; still substitute a declared alias.
		if alias, ok := s.ctx.binds.aliases[raw]; ok {
			return alias, true
		}
		return raw, true
	}
	if p.RefOnly {
		// Reference-only parameters never match a literal.
		if raw[0] == '"' || raw[0] == '{' || raw[0] == '[' || numericPattern.MatchString(raw) {
			return "", false
		}
	}

	// Pointer: the argument must be a bare storage slot of the right type,
	// either a declared variable or a literal slot name. Value content is
	// rejected.
	if t, ok := s.ctx.binds.vars[raw]; ok {
		if p.Base == TypeMixed || t == p.Base {
			return s.ctx.binds.aliases[raw], true
		}
		return "", false
	}
	if t, ok := slotType(raw, false); ok {
		if p.Base == TypeMixed || t == p.Base {
			return raw, true
		}
	}
	return "", false
}

// matchValueParam is the value half of the match predicate.
func matchValueParam(actual Type, p ParamType) bool {
	switch p.Base {
	case TypeMixed, TypeUnref:
		return true
	case TypeExpression:
		// A number is a formula; so is an unevaluated yvar.
		return actual == TypeNumber || actual == TypeExpression ||
			actual == TypeYVar || actual == TypeMixed
	}
	if actual == TypeMixed {
		return true
	}
	return actual == p.Base
}
