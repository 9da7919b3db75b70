// Package patternrewrite normalises log-pattern regular expressions authored
// against a legacy regex dialect so they compile under Go's regexp/RE2.
package patternrewrite

import "regexp"

// faultyEscape strips a backslash placed in front of an ordinary character
// that needs no escaping in RE2 (e.g. "\a" -> "a"), leaving genuine regex
// metacharacter escapes untouched.
var faultyEscape = regexp.MustCompile(`\\([^.+*?()|\[\]{}^$])`)

// emptyExpr matches the accidental "|())" produced by some legacy soundpack
// authoring tools: an alternation with an empty right-hand branch
// immediately followed by the group's own closing paren, turning
// "(dwarf|())" into "(dwarf)?". See DESIGN.md Open Question 3 for why this
// follows the original Rust EMPTY_EXPR regex exactly.
var emptyExpr = regexp.MustCompile(`\|\(\)\)`)

// Rewrite applies both legacy-dialect fixups to a raw logPattern or
// ignore-list line. Rewrite(Rewrite(s)) == Rewrite(s) holds unless s
// contains an escaped backslash followed by an ordinary character (e.g.
// `\\a`): the first pass reduces it to `\a`, which a second pass strips to
// `a`.
func Rewrite(pattern string) string {
	pattern = faultyEscape.ReplaceAllString(pattern, "$1")
	pattern = emptyExpr.ReplaceAllString(pattern, ")?")
	return pattern
}
