package compiler

// Type is the closed set of value categories the target dialect knows about.
// Every switch over Type in this package is written against the full
// enumeration so adding a tag is a compile-visible change.
type Type int

const (
	TypeInvalid Type = iota

	// Core storable types: each owns an alias bucket.
	TypeNumber
	TypeString
	TypeList
	TypeMatrix
	TypeYVar
	TypePicture
	TypeGDB

	// Extended types: reference-only, no alias bucket.
	TypeProgram
	TypeAppVar
	TypeGroup
	TypeApplication

	// Pseudo-types used only in signatures.
	TypeMixed       // any value
	TypeExpression  // an unevaluated formula
	TypeLabel       // 1-2 char uppercase/digit label token
	TypeInstruction // void; the call is a statement, not a value
	TypeUnref       // any token, unchecked
)

func (t Type) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeMatrix:
		return "matrix"
	case TypeYVar:
		return "yvar"
	case TypePicture:
		return "picture"
	case TypeGDB:
		return "gdb"
	case TypeProgram:
		return "program"
	case TypeAppVar:
		return "appvar"
	case TypeGroup:
		return "group"
	case TypeApplication:
		return "application"
	case TypeMixed:
		return "mixed"
	case TypeExpression:
		return "expression"
	case TypeLabel:
		return "label"
	case TypeInstruction:
		return "instruction"
	case TypeUnref:
		return "unref"
	case TypeInvalid:
		return "invalid"
	}
	return "invalid"
}

// Static reports whether values of t cannot take part in any operator.
// A bare reference is still legal.
func (t Type) Static() bool {
	switch t {
	case TypePicture, TypeGDB, TypeProgram, TypeAppVar, TypeGroup,
		TypeApplication, TypeInstruction:
		return true
	case TypeNumber, TypeString, TypeList, TypeMatrix, TypeYVar,
		TypeMixed, TypeExpression, TypeLabel, TypeUnref, TypeInvalid:
		return false
	}
	return false
}

// typeKeywords maps declaration keywords (long and short forms) to the
// declared type. Extended types are listed so the resolver and the keyword
// export see them, but they have no alias bucket and cannot be declared.
var typeKeywords = map[string]Type{
	"number":      TypeNumber,
	"num":         TypeNumber,
	"string":      TypeString,
	"str":         TypeString,
	"list":        TypeList,
	"matrix":      TypeMatrix,
	"mat":         TypeMatrix,
	"yvar":        TypeYVar,
	"picture":     TypePicture,
	"pic":         TypePicture,
	"gdb":         TypeGDB,
	"program":     TypeProgram,
	"prgm":        TypeProgram,
	"appvar":      TypeAppVar,
	"group":       TypeGroup,
	"application": TypeApplication,
	"app":         TypeApplication,
}

// declKeywords introduce a type-inferred declaration.
var declKeywords = map[string]bool{
	"var":     true,
	"let":     true,
	"declare": true,
	"local":   true,
}

// reservedNames are pre-bound and cannot be redeclared. Their alias is the
// dialect's own token for them.
var reservedNames = map[string]string{
	"Ans":   "Ans",
	"pi":    "π",
	"e":     "e",
	"theta": "θ",
	"n":     "n",
}

// ParamType is one parameter slot of a native signature.
type ParamType struct {
	Base     Type
	Optional bool // trailing [T] params may be omitted
	Pointer  bool // T*: a bare storage slot of type T, not its value
	RefOnly  bool // T~: never matches a literal
}

// Signature is one native function or instruction. Immutable once built.
type Signature struct {
	Name    string
	Returns Type
	Params  []ParamType
}

// MinArgs is the number of leading non-optional parameters.
func (s *Signature) MinArgs() int {
	n := 0
	for _, p := range s.Params {
		if p.Optional {
			break
		}
		n++
	}
	return n
}
