package compiler

import (
	"sort"
	"testing"
)

func TestLookupCoversAllBuiltins(t *testing.T) {
	names := Builtins()
	if len(names) < 250 {
		t.Fatalf("only %d builtins registered", len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Error("Builtins() not sorted")
	}
	for _, name := range names {
		sig, ok := Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) failed", name)
			continue
		}
		if sig.Name != name {
			t.Errorf("Lookup(%q) returned signature for %q", name, sig.Name)
		}
	}
}

func TestLookupNamesWithSpacesAndSymbols(t *testing.T) {
	for _, name := range []string{"1-Var Stats", "LinReg(ax+b)", "Pt-On"} {
		sig, ok := Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) failed", name)
			continue
		}
		if sig.Returns != TypeInstruction {
			t.Errorf("%q returns %s, want instruction", name, sig.Returns)
		}
	}
}

func TestLookupIsCaseSensitive(t *testing.T) {
	if _, ok := Lookup("disp"); ok {
		t.Error("lowercase disp should not resolve")
	}
	if _, ok := Lookup("Disp"); !ok {
		t.Error("Disp should resolve")
	}
}

func TestMinArgs(t *testing.T) {
	sig, _ := Lookup("round")
	if got := sig.MinArgs(); got != 1 {
		t.Errorf("round MinArgs = %d, want 1", got)
	}
	sig, _ = Lookup("sub")
	if got := sig.MinArgs(); got != 3 {
		t.Errorf("sub MinArgs = %d, want 3", got)
	}
	sig, _ = Lookup("ClrHome")
	if got := sig.MinArgs(); got != 0 {
		t.Errorf("ClrHome MinArgs = %d, want 0", got)
	}
}

func TestKeywordsExported(t *testing.T) {
	kws := Keywords()
	want := map[string]bool{
		"number": false, "num": false, "string": false, "str": false,
		"list": false, "matrix": false, "var": false, "let": false,
		"void": false, "prgm": false,
	}
	for _, kw := range kws {
		if _, ok := want[kw]; ok {
			want[kw] = true
		}
	}
	for kw, seen := range want {
		if !seen {
			t.Errorf("keyword %q missing", kw)
		}
	}
}

func TestExportedSlicesAreCopies(t *testing.T) {
	a := Builtins()
	a[0] = "mutated"
	b := Builtins()
	if b[0] == "mutated" {
		t.Error("Builtins() exposes internal state")
	}
}

func TestMatchInstructionPrefersLongestName(t *testing.T) {
	name, rest, ok := matchInstruction("DispGraph")
	if !ok || name != "DispGraph" || rest != "" {
		t.Errorf("got %q/%q/%v, want DispGraph", name, rest, ok)
	}

	name, rest, ok = matchInstruction("1-Var Stats L1")
	if !ok || name != "1-Var Stats" || rest != "L1" {
		t.Errorf("got %q/%q/%v, want 1-Var Stats + L1", name, rest, ok)
	}

	if _, _, ok := matchInstruction("Dispatch"); ok {
		t.Error("Dispatch should not match any instruction")
	}
}
