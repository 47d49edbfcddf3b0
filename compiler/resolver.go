package compiler

import (
	"regexp"
	"strings"
)

/*
   Type resolution.

   resolveType decides what a single token means, in a fixed order: the
   dialect's own slot-name grammars first, then declared variables, then
   literals, and as a last resort the expression engine. The parse context
   remembers the previous token that fell through to the expression engine
   so a token that resolves to itself fails fast instead of recursing.
*/

var (
	numberSlotPattern  = regexp.MustCompile(`^[A-Z]$`)
	stringSlotPattern  = regexp.MustCompile(`^Str[0-9]$`)
	listSlotPattern    = regexp.MustCompile(`^L[A-Za-z0-9]{1,6}$`)
	matrixSlotPattern  = regexp.MustCompile(`^\[[A-Z]\]$`)
	yvarSlotPattern    = regexp.MustCompile(`^Y[0-9]$`)
	pictureSlotPattern = regexp.MustCompile(`^Pic[0-9]$`)
	gdbSlotPattern     = regexp.MustCompile(`^GDB[0-9]$`)

	numericPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
	identPattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	labelPattern   = regexp.MustCompile(`^[A-Z0-9]{1,2}$`)
)

// dialectTokens are the dialect's own pre-named value tokens, so formatted
// output (which contains substituted aliases) resolves the same way source
// text does.
var dialectTokens = map[string]Type{
	"Ans": TypeNumber,
	"π":   TypeNumber,
	"θ":   TypeNumber,
	"e":   TypeNumber,
	"n":   TypeNumber,
}

// bindings holds the per-compilation symbol state.
type bindings struct {
	vars    map[string]Type   // declared name -> type
	aliases map[string]string // declared name -> slot token
}

func newBindings() *bindings {
	b := &bindings{
		vars:    make(map[string]Type),
		aliases: make(map[string]string),
	}
	for name, token := range reservedNames {
		b.vars[name] = TypeNumber
		b.aliases[name] = token
	}
	return b
}

// parseContext carries everything a nested parse needs: symbol tables, the
// user function table, the resolver's self-reference guard and the active
// unnative-call hook. One value per compilation; never package-level.
type parseContext struct {
	binds          *bindings
	funcs          map[string]*UserFunc
	lastUnresolved string
}

// slotType matches tok against the fixed slot-name grammars. extended
// enables the reference-only prefixes (prgm/appv/group/app).
func slotType(tok string, extended bool) (Type, bool) {
	switch {
	case numberSlotPattern.MatchString(tok):
		return TypeNumber, true
	case stringSlotPattern.MatchString(tok):
		return TypeString, true
	case matrixSlotPattern.MatchString(tok):
		return TypeMatrix, true
	case yvarSlotPattern.MatchString(tok):
		return TypeYVar, true
	case pictureSlotPattern.MatchString(tok):
		return TypePicture, true
	case gdbSlotPattern.MatchString(tok):
		return TypeGDB, true
	case listSlotPattern.MatchString(tok):
		return TypeList, true
	}
	if extended {
		switch {
		case strings.HasPrefix(tok, "prgm") && len(tok) > 4:
			return TypeProgram, true
		case strings.HasPrefix(tok, "appv") && len(tok) > 4:
			return TypeAppVar, true
		case strings.HasPrefix(tok, "group") && len(tok) > 5:
			return TypeGroup, true
		case strings.HasPrefix(tok, "app") && len(tok) > 3:
			return TypeApplication, true
		}
	}
	return TypeInvalid, false
}

// resolveType determines the semantic type of a single token. Columns in
// returned errors are relative to the token start.
func resolveType(tok string, extended bool, ctx *parseContext) (Type, *CompileError) {
	if t, ok := dialectTokens[tok]; ok {
		return t, nil
	}
	if t, ok := slotType(tok, extended); ok {
		return t, nil
	}
	if t, ok := ctx.binds.vars[tok]; ok {
		return t, nil
	}
	if numericPattern.MatchString(tok) {
		return TypeNumber, nil
	}
	if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
		return TypeString, nil
	}
	if len(tok) >= 2 && tok[0] == '{' && tok[len(tok)-1] == '}' {
		return resolveListLiteral(tok, ctx)
	}
	if len(tok) >= 2 && tok[0] == '[' && tok[len(tok)-1] == ']' {
		if _, err := parseMatrixLiteral(tok); err != nil {
			return TypeInvalid, err
		}
		return TypeMatrix, nil
	}

	// Last resort: treat the token as a full expression. The guard keeps a
	// token that re-resolves to itself from looping forever.
	if tok == ctx.lastUnresolved {
		return TypeInvalid, errf(ErrSyntax, 1, "unknown content type for %q", tok)
	}
	ctx.lastUnresolved = tok
	expr, err := parseExpression(tok, ctx, 0)
	if err != nil {
		return TypeInvalid, err
	}
	ctx.lastUnresolved = ""
	return expr.Type, nil
}

// resolveListLiteral checks {a,b,c}: every top-level element must resolve
// to a number. The failing element's 0-based index is reported as the
// column offset.
func resolveListLiteral(tok string, ctx *parseContext) (Type, *CompileError) {
	inner := tok[1 : len(tok)-1]
	if strings.TrimSpace(inner) == "" {
		return TypeInvalid, errf(ErrSyntax, 1, "empty list literal")
	}
	for i, elem := range splitTopLevel(inner, ',') {
		elem.text = strings.TrimSpace(elem.text)
		t, err := resolveType(elem.text, false, ctx)
		if err != nil {
			return TypeInvalid, err.shift(i)
		}
		if t != TypeNumber {
			return TypeInvalid, errf(ErrTypeMismatch, i,
				"list element %q is %s, expected number", elem.text, t)
		}
	}
	return TypeList, nil
}
