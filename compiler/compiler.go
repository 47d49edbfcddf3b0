package compiler

import (
	"regexp"
	"strings"
)

/*
   Line compiler / driver.

   Compile walks the source a logical line at a time, classifies each line
   (declaration, assignment, function block, instruction statement, bare
   expression), drives the expression engine and the alias allocator, and
   assembles the output program. The first error aborts the run.

   All mutable state lives in the driver value created per call; the only
   shared structure is the immutable signature table.
*/

// UserParam is one parameter of a user-defined function.
type UserParam struct {
	Name string
	Type Type
}

// UserFunc is a user-defined ("unnative") function. The target dialect has
// no call mechanism, so calls are inlined at the call site.
type UserFunc struct {
	Name    string
	Returns Type
	Params  []UserParam
	Body    []string
}

// Result is a successful compilation: the output program plus the symbol
// tables used, for downstream tools to inspect.
type Result struct {
	Output    string
	Variables map[string]Type
	Aliases   map[string]string
	Functions map[string]*UserFunc
}

const maxInlineDepth = 32

// inlineEndMark lines are internal sentinels closing an inlined body.
const inlineEndMark = "\x00endinline:"

// inlineEmitMark lines carry already-compiled output, appended verbatim.
const inlineEmitMark = "\x00emit:"

type sourceLine struct {
	text string
	num  int // 1-based line in the original source
}

type driver struct {
	binds *bindings
	funcs map[string]*UserFunc
	alloc *Allocator
	ctx   *parseContext
	aux   map[string]string

	stream []sourceLine
	idx    int
	out    []string

	declLine     map[string]int // first-declaration line per name
	inlineActive map[string]bool
	inlineDepth  int
}

var (
	funcDeclPattern   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)\s*\{$`)
	assignmentPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*([+\-*/]?)=\s*(.*)$`)
	includePattern    = regexp.MustCompile(`^#include\s+"?([^"]+)"?$`)
)

// Compile translates UnderBasic source text into the target dialect. aux
// maps include names to already-loaded source text; it may be nil.
// Compilation stops at the first error.
func Compile(source string, aux map[string]string) (*Result, *CompileError) {
	binds := newBindings()
	d := &driver{
		binds:        binds,
		funcs:        make(map[string]*UserFunc),
		alloc:        NewAllocator(),
		aux:          aux,
		declLine:     make(map[string]int),
		inlineActive: make(map[string]bool),
	}
	d.ctx = &parseContext{binds: binds, funcs: d.funcs}
	d.stream = toLines(source, 1)

	for d.idx = 0; d.idx < len(d.stream); d.idx++ {
		line := d.stream[d.idx]
		if err := d.compileLine(line); err != nil {
			if err.Line == 0 {
				err.Line = line.num
			}
			return nil, err.render(line.text)
		}
	}

	vars := make(map[string]Type)
	aliases := make(map[string]string)
	for name, t := range d.binds.vars {
		if _, reserved := reservedNames[name]; reserved {
			continue
		}
		vars[name] = t
		aliases[name] = d.binds.aliases[name]
	}
	return &Result{
		Output:    strings.Join(d.out, "\n"),
		Variables: vars,
		Aliases:   aliases,
		Functions: d.funcs,
	}, nil
}

func toLines(text string, firstNum int) []sourceLine {
	raw := strings.Split(text, "\n")
	lines := make([]sourceLine, len(raw))
	for i, t := range raw {
		lines[i] = sourceLine{text: strings.TrimRight(t, "\r"), num: firstNum + i}
	}
	return lines
}

func (d *driver) compileLine(line sourceLine) *CompileError {
	if strings.HasPrefix(line.text, inlineEndMark) {
		name := line.text[len(inlineEndMark):]
		d.inlineActive[name] = false
		d.inlineDepth--
		return nil
	}
	if strings.HasPrefix(line.text, inlineEmitMark) {
		d.out = append(d.out, line.text[len(inlineEmitMark):])
		return nil
	}

	text := stripComment(line.text)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasPrefix(trimmed, "#!") {
		return nil
	}
	offset := strings.Index(text, trimmed) // columns of trimmed content

	if strings.HasPrefix(trimmed, "#include") {
		return d.compileInclude(trimmed, offset)
	}

	word, rest := firstWord(trimmed)

	if t, ok := typeKeywords[word]; ok {
		if m := funcDeclPattern.FindStringSubmatch(rest); m != nil {
			return d.compileFuncDecl(t, m[1], m[2], line, offset)
		}
		return d.compileDecl(t, rest, line, offset+len(trimmed)-len(rest))
	}
	if word == "void" {
		if m := funcDeclPattern.FindStringSubmatch(rest); m != nil {
			return d.compileFuncDecl(TypeInstruction, m[1], m[2], line, offset)
		}
		return errf(ErrSyntax, offset+1, "void is only valid for function declarations")
	}
	if declKeywords[word] {
		return d.compileInferredDecl(rest, line, offset+len(trimmed)-len(rest))
	}

	if m := assignmentPattern.FindStringSubmatch(trimmed); m != nil {
		return d.compileAssignment(m[1], m[2], m[3], line, offset, len(trimmed)-len(m[3]))
	}

	if name, rest, ok := matchInstruction(trimmed); ok {
		return d.compileInstruction(name, rest, line, offset, offset+len(trimmed)-len(rest))
	}

	// A user function invoked without parens becomes a call form. The line
	// text is rewritten too so the inliner can locate the call site.
	if _, ok := d.funcs[word]; ok && rest != "" && !strings.HasPrefix(rest, "(") {
		trimmed = word + "(" + rest + ")"
		line.text = trimmed
		offset = 0
	}

	return d.compileStatement(trimmed, line, offset)
}

// stripComment removes a trailing // comment, respecting string literals.
func stripComment(line string) string {
	inStr := false
	for i := 0; i < len(line); i++ {
		switch {
		case inStr:
			if line[i] == '"' {
				inStr = false
			}
		case line[i] == '"':
			inStr = true
		case line[i] == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		}
	}
	return line
}

func firstWord(text string) (word, rest string) {
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch == ' ' || ch == '\t' {
			return text[:i], strings.TrimLeft(text[i:], " \t")
		}
		if ch == '(' {
			return text[:i], text[i:]
		}
	}
	return text, ""
}

// matchInstruction checks whether the line starts with a native instruction
// name (longest name first; names may contain spaces and symbols).
func matchInstruction(text string) (name, rest string, ok bool) {
	for _, cand := range instructionNames {
		if !strings.HasPrefix(text, cand) {
			continue
		}
		rest := text[len(cand):]
		if rest == "" {
			return cand, "", true
		}
		if rest[0] == ' ' || rest[0] == '(' {
			return cand, strings.TrimLeft(rest, " "), true
		}
	}
	return "", "", false
}

func (d *driver) compileInclude(trimmed string, offset int) *CompileError {
	m := includePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return errf(ErrSyntax, offset+1, "malformed #include directive")
	}
	name := m[1]
	text, ok := d.aux[name]
	if !ok {
		return errf(ErrReference, offset+1, "include %q not found", name)
	}
	// Splice the included text after the current line. Spliced lines keep
	// the include line's number for diagnostics.
	included := toLines(text, 0)
	for i := range included {
		included[i].num = d.stream[d.idx].num
	}
	d.splice(included)
	return nil
}

// splice inserts lines immediately after the current one.
func (d *driver) splice(lines []sourceLine) {
	tail := make([]sourceLine, len(d.stream[d.idx+1:]))
	copy(tail, d.stream[d.idx+1:])
	d.stream = append(d.stream[:d.idx+1], append(lines, tail...)...)
}

// checkNameFree enforces the single namespace shared by variables, user
// functions and native names.
func (d *driver) checkNameFree(name string, col int) *CompileError {
	if !identPattern.MatchString(name) {
		return errf(ErrSyntax, col, "invalid name %q", name)
	}
	if _, ok := reservedNames[name]; ok {
		return errf(ErrSyntax, col, "%s is a reserved name and cannot be redeclared", name)
	}
	if _, ok := d.binds.vars[name]; ok {
		return errf(ErrSyntax, col, "%s is already defined at line %d", name, d.declLine[name])
	}
	if _, ok := d.funcs[name]; ok {
		return errf(ErrSyntax, col, "%s is already defined at line %d", name, d.declLine[name])
	}
	if _, ok := Lookup(name); ok {
		return errf(ErrSyntax, col, "%s collides with a native instruction", name)
	}
	return nil
}

// compileDecl handles `Type name` and `Type name = expr`.
func (d *driver) compileDecl(t Type, rest string, line sourceLine, offset int) *CompileError {
	name := rest
	var init string
	eq := strings.Index(rest, "=")
	initOffset := 0
	if eq >= 0 {
		name = strings.TrimSpace(rest[:eq])
		init = strings.TrimSpace(rest[eq+1:])
		initOffset = offset + eq + 1 + indentOf(rest[eq+1:])
	}
	if err := d.checkNameFree(name, offset+1); err != nil {
		return err
	}

	// Reference-only types have no slot bucket; the declaration binds the
	// name to an existing calculator object named by the initializer.
	if _, bucketed := aliasCapacity[t]; !bucketed {
		if init == "" {
			return errf(ErrSyntax, offset+1, "%s %s must reference an existing object", t, name)
		}
		st, ok := slotType(init, true)
		if !ok || st != t {
			return errf(ErrTypeMismatch, initOffset+1, "%s expects a %s reference, got %q", name, t, init)
		}
		d.binds.vars[name] = t
		d.binds.aliases[name] = init
		d.declLine[name] = line.num
		return nil
	}

	var expr *Expr
	if eq >= 0 {
		var err *CompileError
		expr, err = parseExpression(init, d.ctx, initOffset)
		if err != nil {
			return err
		}
		if len(expr.Unnative) > 0 {
			return d.inlineCall(line, expr.Unnative)
		}
		if !assignable(expr.Type, t) {
			return errf(ErrTypeMismatch, initOffset+1,
				"cannot initialize %s variable with %s value", t, expr.Type)
		}
	}

	alias, aerr := d.alloc.Allocate(t)
	if aerr != nil {
		aerr.Column = offset + 1
		return aerr
	}
	d.binds.vars[name] = t
	d.binds.aliases[name] = alias
	d.declLine[name] = line.num

	if expr != nil {
		d.out = append(d.out, expr.Text+"->"+alias)
	} else if zero := zeroValue(t); zero != "" {
		d.out = append(d.out, zero+"->"+alias)
	}
	return nil
}

// compileInferredDecl handles `var name = expr` and friends.
func (d *driver) compileInferredDecl(rest string, line sourceLine, offset int) *CompileError {
	eq := strings.Index(rest, "=")
	if eq < 0 {
		return errf(ErrSyntax, offset+1, "inferred declaration requires an initializer")
	}
	name := strings.TrimSpace(rest[:eq])
	init := strings.TrimSpace(rest[eq+1:])
	if err := d.checkNameFree(name, offset+1); err != nil {
		return err
	}

	initOffset := offset + eq + 1 + indentOf(rest[eq+1:])
	expr, err := parseExpression(init, d.ctx, initOffset)
	if err != nil {
		return err
	}
	if len(expr.Unnative) > 0 {
		return d.inlineCall(line, expr.Unnative)
	}
	t := expr.Type
	if t == TypeMixed || t == TypeExpression {
		t = TypeNumber
	}

	alias, aerr := d.alloc.Allocate(t)
	if aerr != nil {
		aerr.Column = offset + 1
		return aerr
	}
	d.binds.vars[name] = t
	d.binds.aliases[name] = alias
	d.declLine[name] = line.num
	d.out = append(d.out, expr.Text+"->"+alias)
	return nil
}

// zeroValue is the default initializer emitted for a bare declaration.
// Types without a literal form emit nothing.
func zeroValue(t Type) string {
	switch t {
	case TypeNumber:
		return "0"
	case TypeString:
		return `""`
	case TypeList:
		return "{0}"
	case TypeMatrix:
		return "[[0]]"
	case TypeYVar, TypePicture, TypeGDB, TypeProgram, TypeAppVar,
		TypeGroup, TypeApplication, TypeMixed, TypeExpression,
		TypeLabel, TypeInstruction, TypeUnref, TypeInvalid:
		return ""
	}
	return ""
}

func assignable(rhs, target Type) bool {
	if rhs == target || rhs == TypeMixed {
		return true
	}
	// A yvar stores an unevaluated formula.
	if target == TypeYVar && (rhs == TypeNumber || rhs == TypeExpression) {
		return true
	}
	return false
}

// compileAssignment handles `name = expr` and `name op= expr`.
func (d *driver) compileAssignment(name, op, rhs string, line sourceLine, offset, rhsOffset int) *CompileError {
	if _, ok := reservedNames[name]; ok {
		return errf(ErrSyntax, offset+1, "cannot assign to reserved name %s", name)
	}
	t, ok := d.binds.vars[name]
	if !ok {
		return errf(ErrReference, offset+1, "variable %s is not defined", name)
	}
	alias := d.binds.aliases[name]

	if op != "" {
		if t.Static() {
			return errf(ErrDataType, offset+1, "type %s does not support operators", t)
		}
		if t == TypeString && op != "+" {
			return errf(ErrDataType, offset+1, "operator %q not allowed on string expressions", op)
		}
	}

	rhs = strings.TrimSpace(rhs)
	if rhs == "" {
		return errf(ErrSyntax, offset+rhsOffset+1, "missing right-hand side in assignment")
	}
	expr, err := parseExpression(rhs, d.ctx, offset+rhsOffset)
	if err != nil {
		return err
	}
	if len(expr.Unnative) > 0 {
		return d.inlineCall(line, expr.Unnative)
	}

	if op != "" {
		if expr.Type != t && expr.Type != TypeNumber && expr.Type != TypeMixed {
			return errf(ErrTypeMismatch, offset+rhsOffset+1,
				"cannot combine %s with %s", t, expr.Type)
		}
		d.out = append(d.out, alias+op+expr.Text+"->"+alias)
		return nil
	}

	if !assignable(expr.Type, t) {
		return errf(ErrTypeMismatch, offset+rhsOffset+1,
			"cannot assign %s value to %s variable %s", expr.Type, t, name)
	}
	d.out = append(d.out, expr.Text+"->"+alias)
	return nil
}

// compileFuncDecl captures a `Type name(params) {` block across lines.
func (d *driver) compileFuncDecl(ret Type, name, paramText string, line sourceLine, offset int) *CompileError {
	if err := d.checkNameFree(name, offset+1); err != nil {
		return err
	}

	var params []UserParam
	if strings.TrimSpace(paramText) != "" {
		for _, part := range strings.Split(paramText, ",") {
			fields := strings.Fields(part)
			if len(fields) != 2 {
				return errf(ErrSyntax, offset+1, "malformed parameter %q in function %s", strings.TrimSpace(part), name)
			}
			pt, ok := typeKeywords[fields[0]]
			if !ok {
				return errf(ErrSyntax, offset+1, "unknown parameter type %q in function %s", fields[0], name)
			}
			if !identPattern.MatchString(fields[1]) {
				return errf(ErrSyntax, offset+1, "invalid parameter name %q in function %s", fields[1], name)
			}
			params = append(params, UserParam{Name: fields[1], Type: pt})
		}
	}

	// Capture the body up to the matching close brace, tracking quote
	// state so a brace inside a string does not close the block.
	var body []string
	depth := 1
	for d.idx++; d.idx < len(d.stream); d.idx++ {
		bl := d.stream[d.idx]
		depth += braceDelta(stripComment(bl.text))
		if depth <= 0 {
			d.funcs[name] = &UserFunc{Name: name, Returns: ret, Params: params, Body: body}
			d.declLine[name] = line.num
			return nil
		}
		body = append(body, bl.text)
	}
	return errf(ErrSyntax, offset+1, "unclosed body for function %s", name)
}

// braceDelta counts net brace depth change outside string literals.
func braceDelta(line string) int {
	delta := 0
	inStr := false
	for i := 0; i < len(line); i++ {
		switch {
		case inStr:
			if line[i] == '"' {
				inStr = false
			}
		case line[i] == '"':
			inStr = true
		case line[i] == '{':
			delta++
		case line[i] == '}':
			delta--
		}
	}
	return delta
}

// compileInstruction handles a statement-form native instruction, with or
// without parentheses, and emits the dialect's space-separated form.
func (d *driver) compileInstruction(name, rest string, line sourceLine, offset, argOffset int) *CompileError {
	sig, _ := Lookup(name)

	argText := rest
	if strings.HasPrefix(rest, "(") {
		close := scanBalanced(rest, 0)
		if close < 0 {
			return errf(ErrSyntax, argOffset+1, "unclosed parenthesis in call to %s", name)
		}
		if strings.TrimSpace(rest[close+1:]) != "" {
			return errf(ErrSyntax, argOffset+close+2, "unexpected content after call to %s", name)
		}
		argText = rest[1:close]
		argOffset++
	}

	scan := &exprScan{ctx: d.ctx, src: line.text}
	args, err := scan.validateArgs(name, sig.Params, sig.MinArgs(), argText, argOffset)
	if err != nil {
		return err
	}
	if len(scan.unnative) > 0 {
		return d.inlineCall(line, scan.unnative)
	}

	// Trailing omitted optionals are dropped from the output.
	for len(args) > 0 && args[len(args)-1] == "" {
		args = args[:len(args)-1]
	}
	if len(args) == 0 {
		d.out = append(d.out, name)
	} else {
		d.out = append(d.out, name+" "+strings.Join(args, ","))
	}
	return nil
}

// compileStatement handles a bare expression line.
func (d *driver) compileStatement(trimmed string, line sourceLine, offset int) *CompileError {
	expr, err := parseExpression(trimmed, d.ctx, offset)
	if err != nil {
		return err
	}
	if len(expr.Unnative) > 0 {
		return d.inlineCall(line, expr.Unnative)
	}

	// A lone instruction call compiles to space-separated statement form.
	if expr.Instruction && expr.nOperands == 1 && len(expr.Parts) > 0 {
		last := expr.Parts[len(expr.Parts)-1]
		if last.Call != nil && last.Text == expr.Text {
			args := last.Call.Args
			for len(args) > 0 && args[len(args)-1] == "" {
				args = args[:len(args)-1]
			}
			if len(args) == 0 {
				d.out = append(d.out, last.Call.Name)
			} else {
				d.out = append(d.out, last.Call.Name+" "+strings.Join(args, ","))
			}
			return nil
		}
	}

	d.out = append(d.out, expr.Text)
	return nil
}

// inlineCall splices the body of the first unnative call in calls into the
// line stream at the call site: parameter-substituted body first, then the
// current line with the call collapsed to the answer register. When more
// calls are pending in the same expression, the result is spilled to a
// fresh slot instead, since each later body overwrites the answer register.
// Processing restarts at the spliced body.
func (d *driver) inlineCall(line sourceLine, calls []UnnativeCall) *CompileError {
	call := calls[0]
	f := d.funcs[call.Name]
	if d.inlineActive[call.Name] {
		return errf(ErrSyntax, 1, "recursive inlining of function %s", call.Name)
	}
	if d.inlineDepth >= maxInlineDepth {
		return errf(ErrSyntax, 1, "inlining depth limit exceeded at function %s", call.Name)
	}
	if len(call.Args) != len(f.Params) {
		return errf(ErrArgument, 1, "function %s takes %d arguments, got %d",
			call.Name, len(f.Params), len(call.Args))
	}

	// Substitute arguments for parameter names in the captured body.
	subs := make([]*regexp.Regexp, len(f.Params))
	for i, p := range f.Params {
		subs[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(p.Name) + `\b`)
	}
	body := make([]sourceLine, 0, len(f.Body)+2)
	for _, bl := range f.Body {
		text := bl
		for i, re := range subs {
			text = re.ReplaceAllLiteralString(text, call.Args[i])
		}
		body = append(body, sourceLine{text: text, num: line.num})
	}
	target := "Ans"
	if len(calls) > 1 {
		alias, aerr := d.alloc.Allocate(TypeNumber)
		if aerr != nil {
			aerr.Column = 1
			return aerr
		}
		target = alias
		body = append(body, sourceLine{text: inlineEmitMark + "Ans->" + alias, num: line.num})
	}
	body = append(body, sourceLine{text: inlineEndMark + call.Name, num: line.num})

	// Collapse the call site and re-queue the line.
	modified, err := collapseCall(line.text, call.Name, target, call.Args)
	if err != nil {
		return err
	}
	// A void call used as a statement leaves nothing to re-queue.
	if f.Returns == TypeInstruction && strings.TrimSpace(modified) == "Ans" {
		modified = ""
	}
	body = append(body, sourceLine{text: modified, num: line.num})

	d.inlineActive[call.Name] = true
	d.inlineDepth++
	d.splice(body)
	return nil
}

// collapseCall replaces the `name(...)` call carrying args with repl. The
// scan skips string literals and partial-word matches, and compares the
// argument list so a nested call to the same function collapses the right
// span.
func collapseCall(text, name, repl string, args []string) (string, *CompileError) {
	inStr := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case inStr:
			if ch == '"' {
				inStr = false
			}
		case ch == '"':
			inStr = true
		case strings.HasPrefix(text[i:], name+"(") && (i == 0 || !isWordChar(text[i-1])):
			open := i + len(name)
			close := scanBalanced(text, open)
			if close < 0 {
				return "", errf(ErrSyntax, i+1, "unclosed parenthesis in call to %s", name)
			}
			if sameArgs(text[open+1:close], args) {
				return text[:i] + repl + text[close+1:], nil
			}
		}
	}
	return "", errf(ErrSyntax, 1, "cannot locate call to %s for inlining", name)
}

func isWordChar(ch byte) bool {
	return ch == '_' || (ch >= '0' && ch <= '9') ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// sameArgs compares a call site's raw argument texts with a recorded list.
func sameArgs(inner string, args []string) bool {
	var got []string
	if strings.TrimSpace(inner) != "" {
		for _, p := range splitTopLevel(inner, ',') {
			got = append(got, strings.TrimSpace(p.text))
		}
	}
	if len(got) != len(args) {
		return false
	}
	for i := range got {
		if got[i] != args[i] {
			return false
		}
	}
	return true
}
