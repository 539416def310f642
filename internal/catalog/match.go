package catalog

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the minimum similarity (0-100) for a spoken service name
// to be accepted as a catalog entry.
const DefaultThreshold = 75

// Matcher maps free-text service names onto catalog names.
type Matcher struct {
	Threshold int
}

// NewMatcher returns a matcher; a non-positive threshold falls back to DefaultThreshold.
func NewMatcher(threshold int) Matcher {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	return Matcher{Threshold: threshold}
}

// Best returns the index of the single highest scoring candidate. ok is false
// when nothing reaches the threshold or the top score is shared.
func (m Matcher) Best(query string, candidates []string) (idx int, score int, ok bool) {
	top, score := m.Rank(query, candidates)
	if len(top) != 1 {
		return -1, score, false
	}
	return top[0], score, true
}

// Rank returns every candidate sharing the highest score at or above the
// threshold, in candidate order. A candidate equal to the query after
// normalization wins outright.
func (m Matcher) Rank(query string, candidates []string) (top []int, score int) {
	q := normalize(query)
	for i, candidate := range candidates {
		if q != "" && normalize(candidate) == q {
			return []int{i}, 100
		}
	}
	for i, candidate := range candidates {
		s := Score(query, candidate)
		switch {
		case s > score:
			top, score = []int{i}, s
		case s == score && s > 0:
			top = append(top, i)
		}
	}
	if score < m.threshold() {
		return nil, score
	}
	return top, score
}

// Matches reports whether query and candidate are similar enough.
func (m Matcher) Matches(query, candidate string) bool {
	return Score(query, candidate) >= m.threshold()
}

func (m Matcher) threshold() int {
	if m.Threshold <= 0 {
		return DefaultThreshold
	}
	return m.Threshold
}

// minQueryRunes is the shortest query scored by similarity. Shorter queries
// only match a candidate they equal.
const minQueryRunes = 3

// Score combines substring, token-set and partial-ratio similarity into a
// 0-100 score. The best of the three wins.
func Score(query, candidate string) int {
	q := normalize(query)
	c := normalize(candidate)
	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return 100
	}
	if len([]rune(q)) < minQueryRunes {
		return 0
	}
	if containsTokens(c, q) {
		return 100
	}
	best := tokenSetRatio(q, c)
	if p := partialRatio(q, c); p > best {
		best = p
	}
	return best
}

// containsTokens reports whether q appears in c as a run of whole tokens.
func containsTokens(c, q string) bool {
	return strings.Contains(" "+c+" ", " "+q+" ")
}

func normalize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space && b.Len() > 0 {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// ratio is 100 * (1 - distance/longest) on runes.
func ratio(a, b string) int {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	longest := la
	if lb > longest {
		longest = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int(100*(1-float64(dist)/float64(longest)) + 0.5)
}

func tokenSetRatio(a, b string) int {
	setA := tokenSet(a)
	setB := tokenSet(b)

	var sect, onlyA, onlyB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			sect = append(sect, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(sect)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(sect, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := ratio(withA, withB)
	if base != "" {
		if r := ratio(base, withA); r > best {
			best = r
		}
		if r := ratio(base, withB); r > best {
			best = r
		}
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		out[tok] = struct{}{}
	}
	return out
}

// partialRatio slides the shorter string across the longer one and keeps the
// best window ratio. Windows one rune shorter and longer absorb a dropped or
// doubled letter.
func partialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	s := string(short)
	best := 0
	for _, width := range []int{len(short), len(short) + 1, len(short) - 1} {
		if width <= 0 || width > len(long) {
			continue
		}
		for i := 0; i+width <= len(long); i++ {
			if r := ratio(s, string(long[i:i+width])); r > best {
				best = r
				if best == 100 {
					return best
				}
			}
		}
	}
	return best
}
