package agent

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// namePattern matches a self-declared name right after "我叫 / 我是 / 我的名字是".
// The captured token is 1-12 runes with no whitespace or sentence punctuation.
var namePattern = regexp.MustCompile(`(?:我叫|我是|我的名字是)\s*([^\s，。！？,.!?]{1,12})`)

// sentencePunct flags candidates that are really whole sentences.
var sentencePunct = regexp.MustCompile(`[，。！？,.!? ]`)

// nameDenylist rejects confusion or negation phrasings, e.g. the question
// "我叫什麼名字" must not store 什麼名字 as a name.
var nameDenylist = []string{"什麼", "甚麼", "不知道", "不清楚", "忘了", "名字", "叫什麼", "叫甚麼"}

// ExtractName pulls a self-declared name out of free text, or reports absence.
func ExtractName(text string) (string, bool) {
	m := namePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", false
	}
	cand := strings.TrimSpace(m[1])
	if !looksLikeName(cand) {
		return "", false
	}
	return cand, true
}

func looksLikeName(name string) bool {
	n := strings.TrimSpace(name)
	runes := utf8.RuneCountInString(n)
	if runes < 1 || runes > 12 {
		return false
	}
	for _, bad := range nameDenylist {
		if strings.Contains(n, bad) {
			return false
		}
	}
	// Long candidates containing sentence punctuation are whole clauses.
	if runes >= 6 && sentencePunct.MatchString(n) {
		return false
	}
	return true
}
