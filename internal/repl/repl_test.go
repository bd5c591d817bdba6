package repl

import (
	"bytes"
	"context"
	"errors"
	"helter/internal/builtins"
	"helter/internal/journal"
	"helter/internal/object"
	"strings"
	"testing"
)

type fakeJournal struct {
	entries []journal.Entry
	fail    bool
}

func (f *fakeJournal) Record(_ context.Context, input string, result object.Value) error {
	if f.fail {
		return errors.New("disk full")
	}
	f.entries = append(f.entries, journal.Entry{Seq: int64(len(f.entries) + 1), Input: input, Output: result.Inspect()})
	return nil
}

func (f *fakeJournal) Recent(_ context.Context, n int) ([]journal.Entry, error) {
	if n > len(f.entries) {
		n = len(f.entries)
	}
	return f.entries[len(f.entries)-n:], nil
}

func session(t *testing.T, input string, opts Options) string {
	t.Helper()
	var out bytes.Buffer
	s, err := NewSession(opts, &out)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	Start(context.Background(), strings.NewReader(input), &out, s)
	return out.String()
}

func expectContains(t *testing.T, output string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestBindingsPersistAcrossInputs(t *testing.T) {
	out := session(t, "(:3:x]\nx\n:env\n:q\n(99)\n", Options{})
	expectContains(t, out, "none\n", "3\n", "x = 3\n")
	if strings.Contains(out, "99") {
		t.Errorf("input after :q was evaluated")
	}
}

func TestCurrentValueThreads(t *testing.T) {
	out := session(t, "(5)\n(0:, 1:} +\n", Options{})
	expectContains(t, out, "5\n", "10\n")
}

func TestMultiLineInput(t *testing.T) {
	out := session(t, "(1,\n2}\n", Options{})
	expectContains(t, out, CONTINUE, "{0: 1, 1: 2}\n")
}

func TestCommentOnlyLines(t *testing.T) {
	out := session(t, "# nothing here\n(4)\n", Options{})
	expectContains(t, out, "4\n")
	if strings.Contains(out, "Invalid syntax") {
		t.Errorf("comment line reported as a syntax error:\n%s", out)
	}
}

func TestSyntaxErrorKeepsSession(t *testing.T) {
	out := session(t, "(:1:x]\n1)\nx\n", Options{})
	expectContains(t, out, "Invalid syntax\n", "unexpected \")\"", "1\n")
}

func TestUnfinishedInputAtEOF(t *testing.T) {
	out := session(t, "(1\n", Options{})
	expectContains(t, out, "Invalid syntax", "expected closing bracket")
}

func TestDepthFaultIsRecovered(t *testing.T) {
	out := session(t, "(:[f):f]\nf\n(7)\n", Options{RootPolicy: builtins.PolicyCatalog, MaxDepth: 100})
	expectContains(t, out, "error: maximum evaluation depth exceeded", "7\n")
}

func TestReset(t *testing.T) {
	out := session(t, "(:1:x]\n:reset\n:env\n", Options{})
	expectContains(t, out, "session reset.\n", "no bindings.\n")
}

func TestUnknownPolicy(t *testing.T) {
	if _, err := NewSession(Options{RootPolicy: "maybe"}, &bytes.Buffer{}); !errors.Is(err, builtins.ErrUnknownPolicy) {
		t.Errorf("expected ErrUnknownPolicy, got %v", err)
	}
}

func TestCommands(t *testing.T) {
	out := session(t, ":help\n:ast (:3:x]\n:ast\n:history\n:bogus\n", Options{})
	expectContains(t, out,
		":history [n]",
		"link (]",
		"usage: :ast <expr>",
		"journal disabled",
		"unknown command",
	)
}

func TestDebugAST(t *testing.T) {
	out := session(t, "(1)\n", Options{DebugAST: "json"})
	expectContains(t, out, `"type": "Link"`, "1\n")
}

func TestJournalHistory(t *testing.T) {
	j := &fakeJournal{}
	out := session(t, "(1)\n(2)\n(3)\n:history 2\n", Options{Journal: j})
	if len(j.entries) != 3 {
		t.Fatalf("expected 3 journal entries, got %d", len(j.entries))
	}
	expectContains(t, out, "   2  (2) => 2\n", "   3  (3) => 3\n")
	if strings.Contains(out, "   1  (1)") {
		t.Errorf(":history 2 printed too much:\n%s", out)
	}
}

func TestJournalFailureDoesNotAbort(t *testing.T) {
	out := session(t, "(1)\n(2)\n", Options{Journal: &fakeJournal{fail: true}})
	expectContains(t, out, "1\n", "2\n")
}

func TestNeedsMore(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"", false},
		{"# only a comment", false},
		{":help", false},
		{"(1", true},
		{"(1,", true},
		{`("abc`, true},
		{"(1)", false},
		{"1)", false},
		{"(1 2:x:y:z", false},
	}
	for _, tt := range tests {
		if got := NeedsMore(tt.input); got != tt.expected {
			t.Errorf("%q: expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}
