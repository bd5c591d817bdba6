package object

import "testing"

func TestEnclosedLookupFallsThrough(t *testing.T) {
	x, y := Name("x"), Name("y")
	root := NewRootEnvironment(FixedCatalog{})
	root.Set(x, Box(int64(1), nil))

	inner := NewEnclosedEnvironment(root)
	inner.Set(y, Box(int64(2), nil))

	if inner.Lookup(x).Inspect() != "1" {
		t.Errorf("inner should see outer binding, got %s", inner.Lookup(x).Inspect())
	}
	if _, ok := root.Get(y); ok {
		t.Errorf("outer must not see inner binding")
	}

	inner.Set(x, Box(int64(9), nil))
	if root.Lookup(x).Inspect() != "1" {
		t.Errorf("write to inner frame leaked into outer")
	}
	if inner.Depth() != 2 || root.Depth() != 1 {
		t.Errorf("unexpected depths %d %d", inner.Depth(), root.Depth())
	}
}

func TestProtectDropsWrites(t *testing.T) {
	x := Name("x")
	env := NewRootEnvironment(FixedCatalog{})
	env.Set(x, Box(int64(1), nil))

	p := env.Protect()
	if p.Set(x, Box(int64(2), nil)) {
		t.Errorf("protected Set reported success")
	}
	if p.Set(Name("z"), NONE) {
		t.Errorf("protected Set reported success")
	}
	if env.Lookup(x).Inspect() != "1" {
		t.Errorf("protected write reached the frame")
	}
	if p.Lookup(x).Inspect() != "1" {
		t.Errorf("protected view should read through")
	}
	if !p.IsProtected() || env.IsProtected() {
		t.Errorf("Protect must not change the original view")
	}
}

func TestShadowHidesKeys(t *testing.T) {
	x, y := Name("x"), Name("y")
	env := NewRootEnvironment(FixedCatalog{})
	env.Set(x, Box(int64(1), nil))
	env.Set(y, Box(int64(2), nil))

	s := env.Shadow([]Key{x})
	if _, ok := s.Get(x); ok {
		t.Errorf("shadowed key resolved")
	}
	if s.Lookup(y).Inspect() != "2" {
		t.Errorf("unhidden key should resolve")
	}
	if _, ok := env.Get(x); !ok {
		t.Errorf("Shadow must not change the original view")
	}

	nested := s.Shadow([]Key{y})
	if _, ok := nested.Get(x); ok {
		t.Errorf("nested shadow lost the outer hidden key")
	}
	if _, ok := nested.Get(y); ok {
		t.Errorf("nested shadow did not hide its own key")
	}

	// a frame layered over a shadowed view inherits the hiding
	inner := NewEnclosedEnvironment(s)
	if _, ok := inner.Get(x); ok {
		t.Errorf("hidden key visible through enclosed frame")
	}
}

func TestShadowHidesCatalogEntries(t *testing.T) {
	k := Name("unit")
	env := NewRootEnvironment(FixedCatalog{k: NewSymbol("unit", nil)})
	if _, ok := env.Shadow([]Key{k}).Get(k); ok {
		t.Errorf("shadow should hide root resolver entries too")
	}
}

func TestZeroEnv(t *testing.T) {
	var env Env
	if !env.IsZero() {
		t.Fatalf("zero value should report IsZero")
	}
	if env.Set(Name("x"), NONE) {
		t.Errorf("zero env accepted a write")
	}
	if v := env.Lookup(Name("x")); !IsNone(v) {
		t.Errorf("zero env lookup returned %s", v.Inspect())
	}
	if env.Locals() != nil || env.Depth() != 0 {
		t.Errorf("zero env has no frame")
	}
}

func TestLocalsKeepBindingOrder(t *testing.T) {
	env := NewRootEnvironment(FixedCatalog{})
	for _, n := range []string{"b", "a", "c", "a"} {
		env.Set(Name(n), NONE)
	}
	got := env.Locals()
	want := []Key{Name("b"), Name("a"), Name("c")}
	if len(got) != len(want) {
		t.Fatalf("expected %d locals, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("local %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestFixedCatalogMissesUnknownKeys(t *testing.T) {
	env := NewRootEnvironment(FixedCatalog{})
	if _, ok := env.Get(Name("nope")); ok {
		t.Errorf("fixed catalog resolved an unknown key")
	}
	if !IsNone(env.Lookup(Name("nope"))) {
		t.Errorf("absent key should look up as none")
	}
}

func TestSymbolPoolInterns(t *testing.T) {
	unit := NewSymbol("unit", nil)
	pool := NewSymbolPool(FixedCatalog{Name("unit"): unit})
	env := NewRootEnvironment(pool)

	a1 := env.Lookup(Name("apple"))
	a2 := env.Lookup(Name("apple"))
	b := env.Lookup(Name("banana"))

	if _, ok := a1.(*Symbol); !ok {
		t.Fatalf("expected a minted symbol, got %T", a1)
	}
	if !Same(a1, a2) {
		t.Errorf("same identifier should yield the same atom")
	}
	if Same(a1, b) {
		t.Errorf("different identifiers should yield different atoms")
	}
	if env.Lookup(Name("unit")) != unit {
		t.Errorf("catalog entries take precedence over minting")
	}
	if pool.Len() != 2 {
		t.Errorf("expected 2 minted symbols, got %d", pool.Len())
	}
	if a1.Inspect() != "apple" {
		t.Errorf("symbol prints as its name, got %s", a1.Inspect())
	}
}
