package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Error collects every message reported while parsing one input.
type Error struct {
	Messages []string
	// Positions holds the byte offset each message refers to.
	Positions []int
	// AtEOF is set when parsing failed because input ended inside a link or
	// string, i.e. more input could complete it.
	AtEOF bool
}

func (e *Error) Error() string {
	return strings.Join(e.Messages, "\n")
}

// Context renders src around the first reported offset: up to two lines
// before it, the failing line, and a caret under the offending token.
func (e *Error) Context(src string) string {
	if len(e.Positions) == 0 {
		return ""
	}
	offset := min(max(e.Positions[0], 0), len(src))
	errorLine, _ := lineAndColumn(src, offset)
	lineStart := strings.LastIndexByte(src[:offset], '\n') + 1
	lines := strings.Split(src, "\n")

	var result strings.Builder
	for i := max(errorLine-2, 1); i <= errorLine; i++ {
		if i < errorLine {
			fmt.Fprintf(&result, "     %3d | %s\n", i, lines[i-1])
			continue
		}
		margin := fmt.Sprintf("  >  %3d | ", i)
		fmt.Fprintf(&result, "%s%s\n", margin, lines[i-1])
		result.WriteString(blankOut(margin + src[lineStart:offset]))
		result.WriteString("^ unexpected here")
	}
	return result.String()
}

// lineAndColumn converts a byte offset into a 1-based line and a 1-based
// column counted in runes.
func lineAndColumn(src string, offset int) (line, column int) {
	offset = min(max(offset, 0), len(src))
	before := src[:offset]
	line = strings.Count(before, "\n") + 1
	column = utf8.RuneCountInString(before[strings.LastIndexByte(before, '\n')+1:]) + 1
	return line, column
}

// blankOut replaces s with spaces of the same display width, keeping tabs so
// the caret lines up under the source.
func blankOut(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c == '\t' {
			b.WriteRune('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(c)))
	}
	return b.String()
}
