package retrieval

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/teemow/applytrack/internal/archive"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "at": {}, "be": {}, "by": {},
	"did": {}, "do": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"how": {}, "i": {}, "in": {}, "is": {}, "it": {}, "me": {}, "my": {},
	"of": {}, "on": {}, "or": {}, "the": {}, "to": {}, "was": {}, "what": {},
	"when": {}, "which": {}, "with": {}, "you": {}, "your": {},
}

// tokenize lowercases s and splits it into words, dropping stopwords.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if _, skip := stopwords[f]; skip {
			continue
		}
		out = append(out, f)
	}
	return out
}

type document struct {
	artifact archive.Artifact
	terms    map[string]int
}

func newDocument(a archive.Artifact) document {
	terms := make(map[string]int)
	for _, t := range tokenize(a.Content) {
		terms[t]++
	}
	return document{artifact: a, terms: terms}
}

type scored struct {
	doc   *document
	score float64
}

// rank returns up to k documents with a positive score, best first. Ties
// keep name order.
func rank(docs []document, query string, k int) []archive.Artifact {
	terms := tokenize(query)
	if len(terms) == 0 || len(docs) == 0 {
		return nil
	}

	df := make(map[string]int, len(terms))
	for _, t := range terms {
		if _, seen := df[t]; seen {
			continue
		}
		for i := range docs {
			if docs[i].terms[t] > 0 {
				df[t]++
			}
		}
	}

	n := float64(len(docs))
	var hits []scored
	for i := range docs {
		var s float64
		for _, t := range terms {
			tf := docs[i].terms[t]
			if tf == 0 {
				continue
			}
			s += (1 + math.Log(float64(tf))) * math.Log(1+n/float64(df[t]))
		}
		if s > 0 {
			hits = append(hits, scored{doc: &docs[i], score: s})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]archive.Artifact, len(hits))
	for i, h := range hits {
		out[i] = h.doc.artifact
	}
	return out
}
