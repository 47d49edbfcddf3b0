package compiler

import "sort"

/*
   Native signature table.

   Every function and instruction of the target dialect, keyed by its exact
   name. Lookup is by exact string, case-sensitive: names may contain spaces
   and symbols ("1-Var Stats", "LinReg(ax+b)", "χ²cdf"), so this is a plain
   map, not a tokenizer rule.

   The table is built once at package init and never mutated afterwards, so
   it is safe to share across concurrent compilations.
*/

// Parameter shorthands for the table below.
var (
	pNum   = ParamType{Base: TypeNumber}
	pStr   = ParamType{Base: TypeString}
	pList  = ParamType{Base: TypeList}
	pMat   = ParamType{Base: TypeMatrix}
	pYvar  = ParamType{Base: TypeYVar}
	pPic   = ParamType{Base: TypePicture}
	pGdb   = ParamType{Base: TypeGDB}
	pMix   = ParamType{Base: TypeMixed}
	pExpr  = ParamType{Base: TypeExpression}
	pLbl   = ParamType{Base: TypeLabel}
	pUnref = ParamType{Base: TypeUnref}
)

func opt(p ParamType) ParamType { p.Optional = true; return p }
func ptr(p ParamType) ParamType { p.Pointer = true; return p }

var (
	signatures       map[string]*Signature
	builtinNames     []string // sorted
	instructionNames []string // longest-first, for statement prefix matching
	keywordNames     []string // sorted
)

func init() {
	signatures = make(map[string]*Signature, 320)
	buildMathSignatures()
	buildListMatrixSignatures()
	buildStringSignatures()
	buildIOControlSignatures()
	buildGraphicsSignatures()
	buildModeSignatures()
	buildStatsSignatures()
	buildFinanceClockSignatures()

	for name := range signatures {
		builtinNames = append(builtinNames, name)
		if signatures[name].Returns == TypeInstruction {
			instructionNames = append(instructionNames, name)
		}
	}
	sort.Strings(builtinNames)
	sort.Slice(instructionNames, func(i, j int) bool {
		if len(instructionNames[i]) != len(instructionNames[j]) {
			return len(instructionNames[i]) > len(instructionNames[j])
		}
		return instructionNames[i] < instructionNames[j]
	})

	for kw := range typeKeywords {
		keywordNames = append(keywordNames, kw)
	}
	for kw := range declKeywords {
		keywordNames = append(keywordNames, kw)
	}
	keywordNames = append(keywordNames, "void")
	sort.Strings(keywordNames)
}

func add(name string, ret Type, params ...ParamType) {
	signatures[name] = &Signature{Name: name, Returns: ret, Params: params}
}

// inst declares a void instruction.
func inst(name string, params ...ParamType) {
	add(name, TypeInstruction, params...)
}

// Lookup returns the native signature for name, if any.
func Lookup(name string) (*Signature, bool) {
	s, ok := signatures[name]
	return s, ok
}

// Builtins returns every native function/instruction name, sorted. The
// returned slice is a copy; callers may not see or cause mutation.
func Builtins() []string {
	out := make([]string, len(builtinNames))
	copy(out, builtinNames)
	return out
}

// Keywords returns the declaration keywords (type names, short forms,
// extended type names, var/let/declare/local), sorted.
func Keywords() []string {
	out := make([]string, len(keywordNames))
	copy(out, keywordNames)
	return out
}

func buildMathSignatures() {
	// Unary numeric functions.
	for _, name := range []string{
		"abs", "sin", "cos", "tan", "asin", "acos", "atan",
		"sinh", "cosh", "tanh", "asinh", "acosh", "atanh",
		"ln", "log", "sqrt", "cbrt", "exp",
		"int", "iPart", "fPart",
		"real", "imag", "angle", "conj",
	} {
		add(name, TypeNumber, pNum)
	}
	add("not", TypeNumber, pExpr)

	add("round", TypeNumber, pNum, opt(pNum))
	add("min", TypeNumber, pMix, opt(pMix))
	add("max", TypeNumber, pMix, opt(pMix))
	add("lcm", TypeNumber, pNum, pNum)
	add("gcd", TypeNumber, pNum, pNum)
	add("remainder", TypeNumber, pNum, pNum)
	add("logBASE", TypeNumber, pNum, pNum)

	add("rand", TypeNumber, opt(pNum))
	add("randInt", TypeNumber, pNum, pNum, opt(pNum))
	add("randNorm", TypeNumber, pNum, pNum, opt(pNum))
	add("randBin", TypeNumber, pNum, pNum, opt(pNum))
	add("randIntNoRep", TypeList, pNum, pNum)
	add("randM", TypeMatrix, pNum, pNum)

	// Calculus-flavoured builtins take an unevaluated formula plus the
	// variable it ranges over.
	add("nDeriv", TypeNumber, pExpr, pUnref, pNum, opt(pNum))
	add("fnInt", TypeNumber, pExpr, pUnref, pNum, pNum, opt(pNum))
	add("solve", TypeNumber, pExpr, pUnref, pNum)
	add("fMin", TypeNumber, pExpr, pUnref, pNum, pNum, opt(pNum))
	add("fMax", TypeNumber, pExpr, pUnref, pNum, pNum, opt(pNum))

	// Angle conversions.
	add("R>Pr", TypeNumber, pNum, pNum)
	add("R>Pθ", TypeNumber, pNum, pNum)
	add("P>Rx", TypeNumber, pNum, pNum)
	add("P>Ry", TypeNumber, pNum, pNum)
}

func buildListMatrixSignatures() {
	add("seq", TypeList, pExpr, pUnref, pNum, pNum, opt(pNum))
	add("dim", TypeNumber, pMix)
	add("sum", TypeNumber, pList, opt(pNum), opt(pNum))
	add("prod", TypeNumber, pList, opt(pNum), opt(pNum))
	add("mean", TypeNumber, pList, opt(pList))
	add("median", TypeNumber, pList, opt(pList))
	add("stdDev", TypeNumber, pList, opt(pList))
	add("variance", TypeNumber, pList, opt(pList))
	add("cumSum", TypeMixed, pMix)
	add("augment", TypeMixed, pMix, pMix)
	add("ΔList", TypeList, pList)
	inst("SortA", ptr(pList), opt(ptr(pList)), opt(ptr(pList)))
	inst("SortD", ptr(pList), opt(ptr(pList)), opt(ptr(pList)))
	inst("Fill", pNum, ptr(pMix))
	inst("ClrList", ptr(pList), opt(ptr(pList)), opt(ptr(pList)))
	inst("ClrAllLists")
	inst("SetUpEditor", opt(pUnref), opt(pUnref))
	inst("List>matr", pList, opt(pList), ptr(pMat))
	inst("Matr>list", pMat, ptr(pList), opt(ptr(pList)))
	inst("Select", ptr(pList), ptr(pList))

	add("det", TypeNumber, pMat)
	add("identity", TypeMatrix, pNum)
	add("ref", TypeMatrix, pMat)
	add("rref", TypeMatrix, pMat)
	add("rowSwap", TypeMatrix, pMat, pNum, pNum)
	add("row+", TypeMatrix, pMat, pNum, pNum)
	add("*row", TypeMatrix, pNum, pMat, pNum)
	add("*row+", TypeMatrix, pNum, pMat, pNum, pNum)
}

func buildStringSignatures() {
	add("length", TypeNumber, pStr)
	add("sub", TypeString, pStr, pNum, pNum)
	add("inString", TypeNumber, pStr, pStr, opt(pNum))
	add("expr", TypeNumber, pStr)
	add("toString", TypeString, pMix)
	add("eval", TypeString, pExpr)
	inst("Equ>String", pYvar, ptr(pStr))
	inst("String>Equ", pStr, ptr(pYvar))
}

func buildIOControlSignatures() {
	inst("Disp", opt(pMix), opt(pMix), opt(pMix), opt(pMix), opt(pMix), opt(pMix), opt(pMix))
	inst("Output", pNum, pNum, pMix)
	inst("Input", opt(pUnref), opt(pUnref))
	inst("Prompt", ptr(pMix), opt(ptr(pMix)), opt(ptr(pMix)), opt(ptr(pMix)), opt(ptr(pMix)))
	inst("Pause", opt(pMix))
	inst("Wait", pNum)
	inst("ClrHome")
	inst("ClrDraw")
	inst("ClrTable")
	inst("DispGraph")
	inst("DispTable")
	add("getKey", TypeNumber)
	inst("Menu", pStr, pStr, pLbl, opt(pStr), opt(pLbl), opt(pStr), opt(pLbl), opt(pStr), opt(pLbl))
	inst("Stop")
	inst("Return")
	inst("DelVar", pUnref)
	inst("Archive", pUnref)
	inst("UnArchive", pUnref)
	inst("GarbageCollect")
	inst("Get", pUnref)
	inst("Send", pUnref)
	inst("GetCalc", pUnref, opt(pNum))
	inst("OpenLib", pUnref)
	inst("ExecLib")
	inst("Asm", pUnref)
	inst("AsmComp", pUnref, pUnref)

	inst("If", pExpr)
	inst("Then")
	inst("Else")
	inst("End")
	inst("For", ptr(pNum), pNum, pNum, opt(pNum))
	inst("While", pExpr)
	inst("Repeat", pExpr)
	inst("Goto", pLbl)
	inst("Lbl", pLbl)
	inst("IS>", ptr(pNum), pNum)
	inst("DS<", ptr(pNum), pNum)
}

func buildGraphicsSignatures() {
	inst("Line", pNum, pNum, pNum, pNum, opt(pNum))
	inst("Horizontal", pNum)
	inst("Vertical", pNum)
	inst("Tangent", pExpr, pNum)
	inst("DrawF", pExpr)
	inst("DrawInv", pExpr)
	inst("Shade", pExpr, pExpr, opt(pNum), opt(pNum), opt(pNum), opt(pNum))
	inst("ShadeNorm", pNum, pNum, opt(pNum), opt(pNum))
	inst("Shade_t", pNum, pNum, pNum)
	inst("ShadeF", pNum, pNum, pNum, pNum)
	inst("Circle", pNum, pNum, pNum)
	inst("Text", pNum, pNum, pMix, opt(pMix), opt(pMix))
	inst("Pt-On", pNum, pNum, opt(pNum))
	inst("Pt-Off", pNum, pNum, opt(pNum))
	inst("Pt-Change", pNum, pNum)
	inst("Pxl-On", pNum, pNum)
	inst("Pxl-Off", pNum, pNum)
	inst("Pxl-Change", pNum, pNum)
	add("pxl-Test", TypeNumber, pNum, pNum)
	inst("StorePic", pPic)
	inst("RecallPic", pPic)
	inst("StoreGDB", pGdb)
	inst("RecallGDB", pGdb)
	inst("GraphStyle", pNum, pNum)
	inst("Trace")

	// Zoom instructions.
	for _, name := range []string{
		"ZBox", "Zoom In", "Zoom Out", "ZSquare", "ZStandard", "ZTrig",
		"ZDecimal", "ZoomStat", "ZoomFit", "ZInteger", "ZPrevious",
		"ZoomRcl", "ZoomSto",
	} {
		inst(name)
	}

	// Format toggles.
	for _, name := range []string{
		"AxesOn", "AxesOff", "GridOn", "GridOff", "LabelOn", "LabelOff",
		"CoordOn", "CoordOff", "ExprOn", "ExprOff", "RectGC", "PolarGC",
	} {
		inst(name)
	}
}

func buildModeSignatures() {
	for _, name := range []string{
		"Radian", "Degree", "Normal", "Sci", "Eng", "Float",
		"Func", "Param", "Polar", "Seq",
		"Connected", "Dot", "Sequential", "Simul",
		"Real", "a+bi", "re^θi", "Full", "Horiz", "G-T",
	} {
		inst(name)
	}
	inst("Fix", pNum)
	inst("FnOn", opt(pNum), opt(pNum), opt(pNum))
	inst("FnOff", opt(pNum), opt(pNum), opt(pNum))
	inst("DiagnosticOn")
	inst("DiagnosticOff")
}

func buildStatsSignatures() {
	inst("1-Var Stats", opt(pList), opt(pList))
	inst("2-Var Stats", opt(pList), opt(pList))
	inst("Med-Med", opt(pList), opt(pList), opt(pYvar))
	for _, name := range []string{
		"LinReg(ax+b)", "LinReg(a+bx)", "QuadReg", "CubicReg", "QuartReg",
		"LnReg", "ExpReg", "PwrReg", "Logistic", "SinReg",
	} {
		inst(name, opt(pList), opt(pList), opt(pYvar))
	}
	inst("LinRegTTest", pList, pList, opt(pYvar))
	inst("ANOVA", pList, pList, opt(pList), opt(pList))
	inst("PlotsOn", opt(pNum), opt(pNum), opt(pNum))
	inst("PlotsOff", opt(pNum), opt(pNum), opt(pNum))
	inst("Plot1", pUnref, opt(pUnref), opt(pUnref), opt(pUnref))
	inst("Plot2", pUnref, opt(pUnref), opt(pUnref), opt(pUnref))
	inst("Plot3", pUnref, opt(pUnref), opt(pUnref), opt(pUnref))

	// Distribution functions.
	add("normalpdf", TypeNumber, pNum, opt(pNum), opt(pNum))
	add("normalcdf", TypeNumber, pNum, pNum, opt(pNum), opt(pNum))
	add("invNorm", TypeNumber, pNum, opt(pNum), opt(pNum))
	add("invT", TypeNumber, pNum, pNum)
	add("tpdf", TypeNumber, pNum, pNum)
	add("tcdf", TypeNumber, pNum, pNum, pNum)
	add("χ²pdf", TypeNumber, pNum, pNum)
	add("χ²cdf", TypeNumber, pNum, pNum, pNum)
	add("Fpdf", TypeNumber, pNum, pNum, pNum)
	add("Fcdf", TypeNumber, pNum, pNum, pNum, pNum)
	add("binompdf", TypeNumber, pNum, pNum, opt(pNum))
	add("binomcdf", TypeNumber, pNum, pNum, opt(pNum))
	add("poissonpdf", TypeNumber, pNum, pNum)
	add("poissoncdf", TypeNumber, pNum, pNum)
	add("geometpdf", TypeNumber, pNum, pNum)
	add("geometcdf", TypeNumber, pNum, pNum)

	// Hypothesis tests and intervals.
	inst("Z-Test", pNum, pNum, opt(pList), opt(pNum))
	inst("T-Test", pNum, opt(pList), opt(pNum))
	inst("2-SampZTest", pNum, pNum, pList, pList)
	inst("2-SampTTest", pList, pList, opt(pNum))
	inst("1-PropZTest", pNum, pNum, pNum)
	inst("2-PropZTest", pNum, pNum, pNum, pNum)
	inst("χ²-Test", pMat, pMat)
	inst("χ²GOF-Test", pList, pList, pNum)
	inst("2-SampFTest", pList, pList)
	inst("ZInterval", pNum, opt(pList), opt(pNum))
	inst("TInterval", pList, opt(pNum))
	inst("2-SampZInt", pNum, pNum, pList, pList)
	inst("2-SampTInt", pList, pList, opt(pNum))
	inst("1-PropZInt", pNum, pNum, opt(pNum))
	inst("2-PropZInt", pNum, pNum, pNum, pNum, opt(pNum))
}

func buildFinanceClockSignatures() {
	add("npv", TypeNumber, pNum, pNum, pList, opt(pList))
	add("irr", TypeNumber, pNum, pList, opt(pList))
	add("bal", TypeNumber, pNum, opt(pNum))
	add("ΣPrn", TypeNumber, pNum, pNum, opt(pNum))
	add("ΣInt", TypeNumber, pNum, pNum, opt(pNum))
	for _, name := range []string{"tvm_N", "tvm_I%", "tvm_PV", "tvm_Pmt", "tvm_FV"} {
		add(name, TypeNumber, opt(pNum), opt(pNum), opt(pNum), opt(pNum), opt(pNum))
	}
	add("nom", TypeNumber, pNum, pNum)
	add("eff", TypeNumber, pNum, pNum)
	add("dbd", TypeNumber, pNum, pNum)

	add("getDate", TypeList)
	add("getTime", TypeList)
	add("dayOfWk", TypeNumber, pNum, pNum, pNum)
	add("startTmr", TypeNumber)
	add("checkTmr", TypeNumber, pNum)
	add("isClockOn", TypeNumber)
	add("getDtStr", TypeString, pNum)
	add("getTmStr", TypeString, pNum)
	add("getDtFmt", TypeNumber)
	add("getTmFmt", TypeNumber)
	inst("setDate", pNum, pNum, pNum)
	inst("setTime", pNum, pNum, pNum)
	inst("setDtFmt", pNum)
	inst("setTmFmt", pNum)
	inst("ClockOn")
	inst("ClockOff")
}
