package extract

import (
	"bufio"
	"bytes"
	"context"
	"regexp"
	"strings"
)

// TabWidth is the number of columns a tab counts for when measuring indentation.
const TabWidth = 4

var (
	definitionPattern = regexp.MustCompile(`^[ \t]{0,20}def ([a-zA-Z0-9_]{1,50})\(`)
	callPattern       = regexp.MustCompile(`(\.?)\b([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	returnPattern     = regexp.MustCompile(`\breturn\b`)
	headerPattern     = regexp.MustCompile(`^\s*(?:async\s+)?(?:def|class)\s+\w+`)
)

// Keywords that may be followed by a parenthesis without being a call.
var notCallable = map[string]bool{
	"and": true, "as": true, "assert": true, "await": true, "def": true,
	"del": true, "elif": true, "else": true, "except": true, "for": true,
	"from": true, "if": true, "import": true, "in": true, "is": true,
	"lambda": true, "not": true, "or": true, "raise": true, "return": true,
	"while": true, "with": true, "yield": true, "class": true,
}

// Lines is the line and indentation heuristic extractor.
//
// A definition opens on a line matching "def name(" at column zero. It closes
// on the first later line whose indentation is exactly one unit deeper than
// the opening line and which contains a return token outside a comment, as in
// "return x" or "x = 1; return x". Calls are taken
// from the lines between the two. When no closing line exists the span
// collapses to the opening line and no calls are recorded, so functions that
// do not end in a return are mis-bounded. Classes are not recognized.
type Lines struct{}

// NewLines returns the heuristic extractor.
func NewLines() *Lines {
	return &Lines{}
}

// Strategy returns [StrategyLines].
func (l *Lines) Strategy() Strategy { return StrategyLines }

// Extract scans src line by line. It never fails on malformed input.
func (l *Lines) Extract(ctx context.Context, src []byte) ([]Definition, error) {
	lines := splitLines(src)

	var defs []Definition
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := definitionPattern.FindStringSubmatch(line)
		if m == nil || indentation(line) != 0 {
			continue
		}

		def := Definition{
			Handle: m[1],
			Kind:   KindFunction,
			Start:  Location{Line: i + 1},
			End:    Location{Line: i + 1},
		}
		if end, ok := closingLine(lines, i); ok {
			def.End = Location{Line: end + 1}
			for j := i + 1; j <= end; j++ {
				def.Calls = append(def.Calls, lineCalls(lines[j], j+1)...)
			}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// closingLine returns the index of the line closing the definition opened at
// lines[open].
func closingLine(lines []string, open int) (int, bool) {
	want := indentation(lines[open]) + TabWidth
	for i := open + 1; i < len(lines); i++ {
		line := lines[i]
		if indentation(line) == want && returnPattern.MatchString(stripComment(line)) {
			return i, true
		}
	}
	return 0, false
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

func lineCalls(line string, lineNo int) []CallTarget {
	line = stripComment(line)
	// A nested header names a definition, it does not call it.
	if loc := headerPattern.FindStringIndex(line); loc != nil {
		line = strings.Repeat(" ", loc[1]) + line[loc[1]:]
	}
	var out []CallTarget
	for _, m := range callPattern.FindAllStringSubmatchIndex(line, -1) {
		name := line[m[4]:m[5]]
		if notCallable[name] {
			continue
		}
		pos := Location{Line: lineNo, Column: m[4]}
		if m[3] > m[2] {
			out = append(out, Member(name, pos))
		} else {
			out = append(out, Direct(name, pos))
		}
	}
	return out
}

// indentation measures leading whitespace with tabs expanded to TabWidth.
func indentation(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += TabWidth
		default:
			return n
		}
	}
	return n
}

func splitLines(src []byte) []string {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), len(src)+1)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

var _ Extractor = (*Lines)(nil)
