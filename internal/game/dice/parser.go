package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Expression is a parsed dice expression such as "2d4+1" or a constant "3".
type Expression struct {
	Raw      string
	Count    int // 0 for constant expressions
	Sides    int
	Modifier int
}

var exprPattern = regexp.MustCompile(`^(?:(\d*)d(\d+))?([+-]?\d+)?$`)

// Parse parses a dice expression. Supported forms: "d6", "2d4", "2d4+1",
// "3d6-2" and plain integers such as "5".
//
// Postcondition: Returns an Expression with Count >= 1 and Sides >= 2, or a
// constant Expression with Count == 0, or an error.
func Parse(expr string) (Expression, error) {
	s := strings.ToLower(strings.ReplaceAll(expr, " ", ""))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	m := exprPattern.FindStringSubmatch(s)
	if m == nil {
		return Expression{}, fmt.Errorf("dice: malformed expression %q", expr)
	}
	out := Expression{Raw: expr}
	if m[2] != "" {
		out.Count = 1
		if m[1] != "" {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 {
				return Expression{}, fmt.Errorf("dice: invalid die count in %q", expr)
			}
			out.Count = n
		}
		sides, err := strconv.Atoi(m[2])
		if err != nil || sides < 2 {
			return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 2", expr)
		}
		out.Sides = sides
	}
	if m[3] != "" {
		if out.Count > 0 && m[3][0] != '+' && m[3][0] != '-' {
			return Expression{}, fmt.Errorf("dice: modifier must be signed in %q", expr)
		}
		mod, err := strconv.Atoi(m[3])
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", expr, err)
		}
		out.Modifier = mod
	}
	return out, nil
}

// MustParse parses expr and panics on error.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// IsZero reports whether e was never parsed.
func (e Expression) IsZero() bool { return e.Raw == "" }

// Average returns the expected total of e.
func (e Expression) Average() float64 {
	return float64(e.Count)*float64(e.Sides+1)/2 + float64(e.Modifier)
}
