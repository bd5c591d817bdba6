package parser

import (
	"errors"
	"helter/internal/ast"
	"helter/internal/object"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type boxLiterals struct{}

func (boxLiterals) Int(n int64) object.Value     { return object.Box(n, nil) }
func (boxLiterals) Float(f float64) object.Value { return object.Box(f, nil) }
func (boxLiterals) String(s string) object.Value { return object.Box(s, nil) }

func parse(t *testing.T, input string) ast.Expression {
	t.Helper()
	expr, err := Parse(input, boxLiterals{})
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return expr
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"x", "x"},
		{"42", "42"},
		{"2.5", "2.5"},
		{`"hi"`, `"hi"`},
		{"()", "()"},
		{"(1, 2)", "(1, 2)"},
		{"(1,2,)", "(1, 2)"},
		{"{a:, :b}", "{a:, :b}"},
		{"(:3:x]", "(:3:x]"},
		{"{a:x (1]:b>", "{a:x (1]:b>"},
		{"x (1] {0:}", "x (1] {0:}"},
		{"[:y:x) x", "[:y:x) x"},
		{`<"type":>`, "<type:>"},
		{"(0::1)", "(0::1)"},
	}

	for _, tt := range tests {
		expr := parse(t, tt.input)
		if got := expr.String(); got != tt.expected {
			t.Errorf("%q: expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestParseBinding(t *testing.T) {
	link, ok := parse(t, "(:3:x]").(*ast.Link)
	if !ok {
		t.Fatalf("expected *ast.Link")
	}
	if link.Open != ast.Round || link.Close != ast.Square {
		t.Fatalf("expected (] link, got %s%s", link.Open.Open(), link.Close.Close())
	}
	if len(link.Terms) != 1 {
		t.Fatalf("expected 1 term, got %d", len(link.Terms))
	}
	term := link.Terms[0]
	if term.HasIn || !term.HasOut {
		t.Errorf("expected only an explicit out key, got in=%v out=%v", term.HasIn, term.HasOut)
	}
	if term.InKey != object.Pos(0) {
		t.Errorf("expected positional in key 0, got %s", term.InKey)
	}
	if term.OutKey != object.Name("x") {
		t.Errorf("expected out key x, got %s", term.OutKey)
	}
	c, ok := term.Value.(*ast.Constant)
	if !ok {
		t.Fatalf("expected constant value, got %T", term.Value)
	}
	if c.Value.(*object.Boxed).Content != int64(3) {
		t.Errorf("expected 3, got %v", c.Value.Inspect())
	}
}

func TestParsePositionalDefaults(t *testing.T) {
	link := parse(t, "{a, 1:b, c}").(*ast.Link)
	want := []struct{ in, out object.Key }{
		{object.Pos(0), object.Pos(0)},
		{object.Pos(1), object.Pos(1)},
		{object.Pos(2), object.Pos(2)},
	}
	for i, w := range want {
		term := link.Terms[i]
		if term.InKey != w.in || term.OutKey != w.out {
			t.Errorf("term %d: expected %s->%s, got %s->%s", i, w.in, w.out, term.InKey, term.OutKey)
		}
	}
	if _, ok := link.Terms[1].Value.(*ast.Reference); !ok {
		t.Errorf("expected reference value for term 1, got %T", link.Terms[1].Value)
	}
}

func TestParseIdentityTerms(t *testing.T) {
	link := parse(t, "{a:, :b}").(*ast.Link)
	for i, term := range link.Terms {
		if _, ok := term.Value.(*ast.Identity); !ok {
			t.Errorf("term %d: expected identity, got %T", i, term.Value)
		}
	}
	if link.Terms[0].InKey != object.Name("a") || link.Terms[0].OutKey != object.Pos(0) {
		t.Errorf("unexpected keys on first term")
	}
	if link.Terms[1].InKey != object.Pos(1) || link.Terms[1].OutKey != object.Name("b") {
		t.Errorf("unexpected keys on second term")
	}
}

func TestParseChain(t *testing.T) {
	chain, ok := parse(t, "(:1:x] [x) (2)").(*ast.Chain)
	if !ok {
		t.Fatalf("expected *ast.Chain")
	}
	if len(chain.Links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(chain.Links))
	}
	if l := chain.Links[1].(*ast.Link); l.Open != ast.Square || l.Close != ast.Round {
		t.Errorf("expected [) link in the middle")
	}
}

func TestParseNestedChainAsTermValue(t *testing.T) {
	link := parse(t, "(x (1) y)").(*ast.Link)
	if len(link.Terms) != 1 {
		t.Fatalf("expected 1 term, got %d", len(link.Terms))
	}
	chain, ok := link.Terms[0].Value.(*ast.Chain)
	if !ok || len(chain.Links) != 3 {
		t.Fatalf("expected a 3 element chain, got %T", link.Terms[0].Value)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input      string
		message    string
		incomplete bool
	}{
		{"", "no expression found", true},
		{"(1", "expected closing bracket", true},
		{`("abc`, "illegal token", true},
		{"1)", `unexpected ")"`, false},
		{"(1 2:x:y:z)", "at most two", false},
		{"(2.5:x)", "invalid key", false},
		{"(-1:x)", "invalid key", false},
		{"(1 : )", "", false},
		{"(3abc)", "illegal token", false},
	}

	for _, tt := range tests {
		_, err := Parse(tt.input, boxLiterals{})
		if tt.message == "" {
			if err != nil {
				t.Errorf("%q: unexpected error %v", tt.input, err)
			}
			continue
		}
		var perr *Error
		if !errors.As(err, &perr) {
			t.Errorf("%q: expected *Error, got %v", tt.input, err)
			continue
		}
		if !strings.Contains(perr.Error(), tt.message) {
			t.Errorf("%q: expected error containing %q, got %q", tt.input, tt.message, perr.Error())
		}
		if perr.AtEOF != tt.incomplete {
			t.Errorf("%q: expected AtEOF=%v", tt.input, tt.incomplete)
		}
	}
}

func TestErrorPositions(t *testing.T) {
	_, err := Parse("(1,\n  2))", boxLiterals{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.HasPrefix(err.Error(), "[  2: 5]") {
		t.Errorf("expected error at line 2 column 5, got %q", err.Error())
	}
}

func TestRenderAST(t *testing.T) {
	expr := parse(t, "(:3:x] x")

	text := RenderASTAsText(expr, 0)
	for _, want := range []string{"chain", "  link (]", "term 0 -> x", "const 3", "  ref x"} {
		if !strings.Contains(text, want) {
			t.Errorf("text rendering missing %q:\n%s", want, text)
		}
	}

	js, err := RenderASTAsJSON(expr)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(js, `"type": "Chain"`) || !strings.Contains(js, `"close": "square"`) {
		t.Errorf("unexpected json rendering:\n%s", js)
	}

	y, err := RenderASTAsYAML(expr)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(y, "type: Chain") || !strings.Contains(y, "key: x") {
		t.Errorf("unexpected yaml rendering:\n%s", y)
	}
}

func TestErrorOffsets(t *testing.T) {
	_, err := Parse("(1, 2))", boxLiterals{})
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if len(perr.Positions) != len(perr.Messages) || perr.Positions[0] != 6 {
		t.Errorf("expected offset 6, got %v", perr.Positions)
	}
}

func TestEmbeddedNulIsIllegal(t *testing.T) {
	_, err := Parse("(1)\x00 this is ) garbage (", boxLiterals{})
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !strings.Contains(perr.Messages[0], "illegal token") || perr.Positions[0] != 3 {
		t.Errorf("expected illegal token at offset 3, got %v at %v", perr.Messages, perr.Positions)
	}
	if perr.AtEOF {
		t.Errorf("a NUL byte must not look like end of input")
	}
}

func TestIntegerOutOfRange(t *testing.T) {
	for _, input := range []string{"(9223372036854775808)", "-9223372036854775809", "(:x:99999999999999999999]"} {
		_, err := Parse(input, boxLiterals{})
		if err == nil {
			t.Errorf("%s: expected an error", input)
			continue
		}
		if !strings.Contains(err.Error(), "out of range") {
			t.Errorf("%s: expected a range error, got %q", input, err.Error())
		}
	}

	expr := parse(t, "-9223372036854775808")
	c, ok := expr.(*ast.Constant)
	if !ok {
		t.Fatalf("expected constant, got %T", expr)
	}
	if n := c.Value.(*object.Boxed).Content; n != int64(-9223372036854775808) {
		t.Errorf("expected min int64, got %v", n)
	}
}

func TestErrorContext(t *testing.T) {
	tests := []struct {
		input string
		lines []string
	}{
		{
			"(1,\n 2,\n 3))",
			[]string{"       1 | (1,", "       2 |  2,", "  >    3 |  3))", "              ^ unexpected here"},
		},
		{
			"(café, 1))",
			[]string{"  >    1 | (café, 1))", "                    ^ unexpected here"},
		},
		{
			"(漢字))",
			[]string{"  >    1 | (漢字))", "                 ^ unexpected here"},
		},
		{
			"(1,\n",
			[]string{"       1 | (1,", "  >    2 | ", "           ^ unexpected here"},
		},
	}

	for _, tt := range tests {
		_, err := Parse(tt.input, boxLiterals{})
		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("%q: expected *Error, got %v", tt.input, err)
		}
		got := strings.Split(perr.Context(tt.input), "\n")
		if len(got) != len(tt.lines) {
			t.Errorf("%q: expected %d lines, got %q", tt.input, len(tt.lines), got)
			continue
		}
		for i, want := range tt.lines {
			if got[i] != want {
				t.Errorf("%q line %d: expected %q, got %q", tt.input, i, want, got[i])
			}
		}
	}
}

func TestLineAndColumnCountsRunes(t *testing.T) {
	src := "ab\nçd x"
	tests := []struct{ offset, line, col int }{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{5, 2, 2},
		{7, 2, 4},
		{len(src), 2, 5},
	}
	for _, tt := range tests {
		line, col := lineAndColumn(src, tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("offset %d: expected %d:%d, got %d:%d", tt.offset, tt.line, tt.col, line, col)
		}
	}
}

func TestWriteAST(t *testing.T) {
	expr := parse(t, "(:3:x] x")
	target := filepath.Join(t.TempDir(), "prog.ast.yaml")
	if err := WriteAST(expr, target, "yaml"); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "type: Chain") {
		t.Errorf("unexpected file contents:\n%s", data)
	}

	if err := WriteAST(expr, target, "xml"); err == nil {
		t.Errorf("expected an error for an unknown format")
	}
}
