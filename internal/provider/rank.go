package provider

import "strings"

// searchTerms splits a query on whitespace and lower-cases each token.
func searchTerms(query string) []string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = strings.ToLower(t)
	}
	return terms
}

// matchesAll reports whether every term appears in the title or the channel.
// A term may match either field independently of the others.
func matchesAll(c Candidate, terms []string) bool {
	title := strings.ToLower(c.Title)
	artist := strings.ToLower(c.Channel)
	for _, term := range terms {
		if !strings.Contains(title, term) && !strings.Contains(artist, term) {
			return false
		}
	}
	return true
}

// filterCandidates keeps matching candidates in upstream order.
func filterCandidates(candidates []Candidate, terms []string) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if matchesAll(c, terms) {
			out = append(out, c)
		}
	}
	return out
}
