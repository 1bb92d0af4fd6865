package utils

import (
	"strings"
	"unicode/utf8"
)

// Initials 头像占位，取前两个单词的首字母
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, f := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(f)
		b.WriteString(strings.ToUpper(string(r)))
		n++
		if n == 2 {
			break
		}
	}
	if n == 0 {
		return "?"
	}
	return b.String()
}
