package database

import "strings"

const maxOutputTail = 2000

// outputTail keeps failure causes readable when a dump tool floods its
// combined output.
func outputTail(output []byte) string {
	s := strings.TrimSpace(string(output))
	if len(s) <= maxOutputTail {
		return s
	}
	return "..." + s[len(s)-maxOutputTail:]
}
