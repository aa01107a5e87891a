package schema

import "github.com/dlclark/regexp2"

// CompilePattern compiles a `pattern` keyword with ECMA-262 semantics, so
// lookaheads and backreferences behave as they do in browsers.
func CompilePattern(pattern string) (*regexp2.Regexp, error) {
	return regexp2.Compile(pattern, regexp2.ECMAScript)
}

// MatchPattern reports whether re matches s. Engine errors count as a
// mismatch.
func MatchPattern(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}
