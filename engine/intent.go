package engine

import (
	"regexp"
	"strings"
)

// Intents recognized by the shortcut classifier.
const (
	IntentListAll       = "list_all"
	IntentSearchByEmail = "search_by_email"
	IntentSearchByRole  = "search_by_role"
	IntentSearchByName  = "search_by_name"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	whoIsPattern = regexp.MustCompile(`(?i)\bwho\s+is\s+(.+?)\s*\??\s*$`)
)

var listAllPhrases = []string{
	"list all",
	"show all",
	"everyone",
	"all members",
	"all employees",
}

var roleKeywords = []string{
	"engineer",
	"developer",
	"designer",
	"manager",
	"director",
	"analyst",
	"scientist",
	"intern",
	"sales",
	"marketing",
	"support",
	"hr",
	"finance",
	"legal",
}

// DetectTeamQuery classifies directory-style queries that a single plugin
// call can answer without entering the reasoning loop. It accepts any
// value because raw caller input is untrusted: non-string or blank input
// is simply not a match. Intents are checked in priority order; the
// returned argument is the matched email, role token, or name tokens.
func DetectTeamQuery(query any) (bool, string, string) {
	s, ok := query.(string)
	if !ok {
		return false, "", ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return false, "", ""
	}
	lower := strings.ToLower(s)

	for _, phrase := range listAllPhrases {
		if strings.Contains(lower, phrase) {
			return true, IntentListAll, ""
		}
	}

	if email := emailPattern.FindString(s); email != "" {
		return true, IntentSearchByEmail, email
	}

	for _, role := range roleKeywords {
		if containsWord(lower, role) {
			return true, IntentSearchByRole, role
		}
	}

	if m := whoIsPattern.FindStringSubmatch(s); m != nil {
		name := strings.TrimSpace(m[1])
		if name != "" {
			return true, IntentSearchByName, name
		}
	}

	return false, "", ""
}

// containsWord matches whole words only, so "manager" does not fire on
// "managerial styles discussion".
func containsWord(s, word string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(s[start-1])
		afterOK := end == len(s) || !isWordChar(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
