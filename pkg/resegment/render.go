package resegment

import (
	"strings"

	"github.com/bastiangx/wordfix/pkg/segment"
)

// Policy is the acceptance check applied to every search result.
type Policy struct {
	dict Lookup
}

// NewPolicy creates a policy checking parts against dict.
func NewPolicy(dict Lookup) Policy {
	return Policy{dict: dict}
}

// Accept reports whether cand is a pure split of original made only of
// dictionary words. Candidates that change characters are rejected whatever
// their edit distance.
func (p Policy) Accept(original string, cand segment.Candidate) bool {
	if len(cand.Parts) == 0 || cand.Joined() != original {
		return false
	}
	for _, part := range cand.Parts {
		if !p.dict.Contains(part) {
			return false
		}
	}
	return true
}

// Segmented pairs a token with its accepted candidate, if any.
type Segmented struct {
	Token
	Candidate *segment.Candidate
}

// Render reassembles the token stream. Accepted candidates are written as
// their parts joined by single spaces; every token keeps its trailing whitespace.
func Render(items []Segmented) string {
	var sb strings.Builder
	for _, it := range items {
		if it.Candidate != nil {
			sb.WriteString(it.Candidate.String())
		} else {
			sb.WriteString(it.Text)
		}
		sb.WriteString(it.Whitespace)
	}
	return sb.String()
}
