package services

import (
	"strings"

	"golang.org/x/text/cases"
)

// ===========================================================================
// Search matching
// Names compare under Unicode case folding; phones compare on digits only so
// "(555) 123-4567" matches "555-123-4567".
// ===========================================================================

var folder = cases.Fold()

func foldName(s string) string {
	return folder.String(strings.TrimSpace(s))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// searchMatcher is a prepared SearchQuery.
type searchMatcher struct {
	name  string
	phone string
}

func newSearchMatcher(q SearchQuery) searchMatcher {
	return searchMatcher{
		name:  foldName(q.Name),
		phone: digitsOnly(q.Phone),
	}
}

func (m searchMatcher) matches(name, phone string) bool {
	if m.name != "" && !strings.Contains(foldName(name), m.name) {
		return false
	}
	if m.phone != "" && !strings.Contains(digitsOnly(phone), m.phone) {
		return false
	}
	return true
}

// newerFirst orders (date, time) descending.
func newerFirst(dateA, timeA, dateB, timeB string) int {
	if c := strings.Compare(dateB, dateA); c != 0 {
		return c
	}
	return strings.Compare(timeB, timeA)
}
