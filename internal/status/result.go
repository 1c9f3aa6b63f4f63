// ABOUTME: Build result severity scale and status ball colors
// ABOUTME: Defines Combine (worst result wins) and the result-to-color mapping

package status

import (
	"fmt"
	"strings"
)

// Result is the outcome of a completed run, ordered by severity.
// ResultNone means "no result yet" and is the identity element of Combine.
type Result int

const (
	ResultNone Result = iota
	ResultSuccess
	ResultUnstable
	ResultFailure
	ResultAborted
	ResultNotBuilt
)

var resultNames = map[Result]string{
	ResultNone:     "",
	ResultSuccess:  "SUCCESS",
	ResultUnstable: "UNSTABLE",
	ResultFailure:  "FAILURE",
	ResultAborted:  "ABORTED",
	ResultNotBuilt: "NOT_BUILT",
}

// String returns the canonical upper-case name, or "" for ResultNone.
func (r Result) String() string {
	return resultNames[r]
}

// ParseResult parses a result name case-insensitively. The empty string parses as ResultNone.
func ParseResult(s string) (Result, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for r, n := range resultNames {
		if n == name {
			return r, nil
		}
	}
	return ResultNone, fmt.Errorf("unknown result %q", s)
}

// Combine returns the more severe of a and b.
// Combining with ResultNone keeps the other value.
func Combine(a, b Result) Result {
	if a == ResultNone {
		return b
	}
	if b == ResultNone {
		return a
	}
	if b > a {
		return b
	}
	return a
}

// BallColor is the renderable base state of a status ball.
type BallColor string

const (
	ColorBlue     BallColor = "blue"
	ColorYellow   BallColor = "yellow"
	ColorRed      BallColor = "red"
	ColorAborted  BallColor = "aborted"
	ColorNotBuilt BallColor = "notbuilt"
)

// animeSuffix marks the in-progress variant of a color.
const animeSuffix = "_anime"

// Color maps a result to its ball color. ResultNone maps to ColorNotBuilt.
func (r Result) Color() BallColor {
	switch r {
	case ResultSuccess:
		return ColorBlue
	case ResultUnstable:
		return ColorYellow
	case ResultFailure:
		return ColorRed
	case ResultAborted:
		return ColorAborted
	default:
		return ColorNotBuilt
	}
}

// Code renders the color, optionally with the animated modifier.
func (c BallColor) Code(animated bool) string {
	if animated {
		return string(c) + animeSuffix
	}
	return string(c)
}
