package sshexec

import "strings"

// singleQuote wraps s in single quotes, escaping any embedded single quotes
// with the standard '\'' shell idiom.
func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
