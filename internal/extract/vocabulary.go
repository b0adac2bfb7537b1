package extract

import (
	"regexp"
	"strings"
)

// defaultTechnologies is the built-in topic vocabulary.
var defaultTechnologies = []string{
	"TypeScript", "JavaScript", "Python", "Go", "React", "Next.js",
	"Neo4j", "Claude", "Figma", "Slack", "GitHub", "PHP",
}

// Vocabulary is an ordered set of technology names recognized as topics.
// Terms match case-sensitively as whole words. The zero value is empty.
type Vocabulary struct {
	terms []string
	seen  map[string]struct{}
	re    *regexp.Regexp
}

// NewVocabulary builds a vocabulary from terms, skipping blanks and duplicates.
func NewVocabulary(terms ...string) *Vocabulary {
	v := &Vocabulary{}
	v.Add(terms...)
	return v
}

// DefaultVocabulary returns a fresh copy of the built-in technology list.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(defaultTechnologies...)
}

// Add appends terms. Order of first insertion is kept because regexp
// alternation prefers earlier branches.
func (v *Vocabulary) Add(terms ...string) {
	if v.seen == nil {
		v.seen = make(map[string]struct{})
	}
	changed := false
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := v.seen[t]; ok {
			continue
		}
		v.seen[t] = struct{}{}
		v.terms = append(v.terms, t)
		changed = true
	}
	if changed {
		v.re = nil
	}
}

// Terms returns a copy of the vocabulary in insertion order.
func (v *Vocabulary) Terms() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.terms...)
}

// Len reports the number of terms.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.terms)
}

// matcher compiles (once per change) the whole-word alternation.
func (v *Vocabulary) matcher() *regexp.Regexp {
	if v == nil || len(v.terms) == 0 {
		return nil
	}
	if v.re == nil {
		quoted := make([]string, len(v.terms))
		for i, t := range v.terms {
			quoted[i] = regexp.QuoteMeta(t)
		}
		v.re = regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
	}
	return v.re
}
