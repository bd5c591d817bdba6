package builtins

import (
	"helter/internal/object"
	"math"
	"sort"
	"unicode/utf8"
)

// operand unboxes v when its type descriptor carries tag typ.
func operand[T int64 | float64 | string](v object.Value, typ string) (T, bool) {
	var zero T
	if !HasType(v, typ) {
		return zero, false
	}
	b, ok := v.(*object.Boxed)
	if !ok {
		return zero, false
	}
	c, ok := b.Content.(T)
	return c, ok
}

// operands unboxes the two positional fields of a pair.
func operands[T int64 | float64 | string](pair object.Value, typ string) (T, T, bool) {
	a, okA := operand[T](pair.Component(object.Pos(0)), typ)
	b, okB := operand[T](pair.Component(object.Pos(1)), typ)
	return a, b, okA && okB
}

// binary guards a two-field operation on operands of type typ; anything else
// yields None.
func binary[T int64 | float64 | string](typ, op string, fn func(a, b T) object.Value) object.Value {
	return native(typ+"."+op, func(pair object.Value) object.Value {
		a, b, ok := operands[T](pair, typ)
		if !ok {
			return object.NONE
		}
		return fn(a, b)
	})
}

func intOps() map[string]object.Value {
	return map[string]object.Value{
		"+": binary("int", "+", checked(addInt)),
		"-": binary("int", "-", checked(subInt)),
		"*": binary("int", "*", checked(mulInt)),
		"/": binary("int", "/", func(a, b int64) object.Value {
			if b == 0 || (a == math.MinInt64 && b == -1) {
				return object.NONE
			}
			return Int(floorDiv(a, b))
		}),
		"%": binary("int", "%", func(a, b int64) object.Value {
			if b == 0 {
				return object.NONE
			}
			return Int(a - b*floorDiv(a, b))
		}),
		"=":  binary("int", "=", func(a, b int64) object.Value { return Bool(a == b) }),
		"<":  binary("int", "<", func(a, b int64) object.Value { return Bool(a < b) }),
		">":  binary("int", ">", func(a, b int64) object.Value { return Bool(a > b) }),
		"<=": binary("int", "<=", func(a, b int64) object.Value { return Bool(a <= b) }),
		">=": binary("int", ">=", func(a, b int64) object.Value { return Bool(a >= b) }),
	}
}

func floatOps() map[string]object.Value {
	return map[string]object.Value{
		"+": binary("float", "+", func(a, b float64) object.Value { return Float(a + b) }),
		"-": binary("float", "-", func(a, b float64) object.Value { return Float(a - b) }),
		"*": binary("float", "*", func(a, b float64) object.Value { return Float(a * b) }),
		"/": binary("float", "/", func(a, b float64) object.Value {
			if b == 0 {
				return object.NONE
			}
			return Float(a / b)
		}),
		"%": binary("float", "%", func(a, b float64) object.Value {
			if b == 0 {
				return object.NONE
			}
			return Float(a - b*math.Floor(a/b))
		}),
		"=": binary("float", "=", func(a, b float64) object.Value { return Bool(a == b) }),
		"<": binary("float", "<", func(a, b float64) object.Value { return Bool(a < b) }),
		">": binary("float", ">", func(a, b float64) object.Value { return Bool(a > b) }),
	}
}

func stringOps() map[string]object.Value {
	return map[string]object.Value{
		"+": binary("string", "+", func(a, b string) object.Value { return String(a + b) }),
		"=": binary("string", "=", func(a, b string) object.Value { return Bool(a == b) }),
		"length": native("string.length", func(v object.Value) object.Value {
			s, ok := operand[string](v, "string")
			if !ok {
				return object.NONE
			}
			return Int(int64(utf8.RuneCountInString(s)))
		}),
	}
}

func boolOps() map[string]object.Value {
	logical := func(op string, fn func(a, b bool) bool) object.Value {
		return native("bool."+op, func(pair object.Value) object.Value {
			a, b := pair.Component(object.Pos(0)), pair.Component(object.Pos(1))
			if !HasType(a, "bool") || !HasType(b, "bool") {
				return object.NONE
			}
			return Bool(fn(a == TRUE, b == TRUE))
		})
	}
	return map[string]object.Value{
		"!": native("bool.!", func(v object.Value) object.Value {
			switch v {
			case TRUE:
				return FALSE
			case FALSE:
				return TRUE
			}
			return object.NONE
		}),
		"&": logical("&", func(a, b bool) bool { return a && b }),
		"|": logical("|", func(a, b bool) bool { return a || b }),
		"=": native("bool.=", func(pair object.Value) object.Value {
			a, b := pair.Component(object.Pos(0)), pair.Component(object.Pos(1))
			if !HasType(a, "bool") || !HasType(b, "bool") {
				return object.NONE
			}
			return Bool(object.Same(a, b))
		}),
	}
}

// checked turns an int64 operation into an operator that yields None when
// the result does not fit.
func checked(op func(a, b int64) (int64, bool)) func(a, b int64) object.Value {
	return func(a, b int64) object.Value {
		r, ok := op(a, b)
		if !ok {
			return object.NONE
		}
		return Int(r)
	}
}

func addInt(a, b int64) (int64, bool) {
	s := a + b
	return s, (s > a) == (b > 0)
}

func subInt(a, b int64) (int64, bool) {
	d := a - b
	return d, (d < a) == (b > 0)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	p := a * b
	return p, p/b == a
}

// floorDiv rounds toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func sortedNames(ops map[string]object.Value) []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
