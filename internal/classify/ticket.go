package classify

import (
	"strings"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

// ExtractTicketRef returns the first ticket reference in the subject line.
// Priority: bracketed JIRA key, bare JIRA key, closing keyword + #N, bare #N.
func ExtractTicketRef(message string) (string, bool) {
	line := temporal.FirstLine(message)

	if start := strings.IndexByte(line, '['); start >= 0 {
		if end := strings.IndexByte(line[start:], ']'); end > 0 {
			inner := line[start+1 : start+end]
			if isJiraKey(inner) {
				return inner, true
			}
		}
	}

	if key, ok := findJiraKey(line); ok {
		return key, true
	}

	lower := strings.ToLower(line)
	for _, kw := range []string{"fixes #", "fixed #", "closes #", "closed #"} {
		if pos := strings.Index(lower, kw); pos >= 0 {
			if num := leadingDigits(line[pos+len(kw):]); num != "" {
				return "#" + num, true
			}
		}
	}

	if pos := strings.IndexByte(line, '#'); pos >= 0 {
		if num := leadingDigits(line[pos+1:]); num != "" {
			return "#" + num, true
		}
	}
	return "", false
}

// isJiraKey reports whether s is exactly 2+ uppercase letters, '-', 1+ digits
func isJiraKey(s string) bool {
	i := 0
	for i < len(s) && isUpper(s[i]) {
		i++
	}
	if i < 2 || i >= len(s) || s[i] != '-' {
		return false
	}
	i++
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return i > start && i == len(s)
}

// findJiraKey scans for the first word-bounded JIRA key
func findJiraKey(text string) (string, bool) {
	n := len(text)
	for i := 0; i < n; {
		if !isUpper(text[i]) {
			i++
			continue
		}
		if i > 0 && (isAlnum(text[i-1]) || text[i-1] == '-') {
			i++
			continue
		}
		start := i
		for i < n && isUpper(text[i]) {
			i++
		}
		if i-start < 2 || i >= n || text[i] != '-' {
			continue
		}
		i++
		digits := i
		for i < n && isDigit(text[i]) {
			i++
		}
		if i > digits && (i >= n || !isAlnum(text[i])) {
			return text[start:i], true
		}
	}
	return "", false
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i]
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }
func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlnum(b byte) bool { return isUpper(b) || isDigit(b) || (b >= 'a' && b <= 'z') }
