package similarity

import "strings"

// fuzzyWeight is the score awarded to token pairs within edit-distance
// tolerance; containWeight to substring containment between longer tokens.
const (
	fuzzyWeight   = 0.8
	containWeight = 0.5
)

// FuzzyTokenMatch scores two tokens: 0.8 when their edit distance is within
// tolerance (1 for short tokens, 2 for tokens of 7+ characters), else 0.
// The tighter bound on short tokens keeps unrelated three-letter words from
// matching each other.
func FuzzyTokenMatch(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	maxDist := 1
	if len(a) >= 7 && len(b) >= 7 {
		maxDist = 2
	}
	if Levenshtein(a, b) <= maxDist {
		return fuzzyWeight
	}
	return 0
}

// NameSimilarity compares two normalized names as token sets. Exact token
// matches count 1, leftover tokens are paired greedily by best fuzzy match,
// and if nothing matched at all, substring containment between tokens of 4+
// characters counts 0.5. The total matched weight is divided by the size of
// the token union, so partial-overlap pairs score proportionally lower.
func NameSimilarity(a, b string) float64 {
	tokensA := uniqueTokens(a)
	tokensB := uniqueTokens(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	union := make(map[string]bool, len(tokensA)+len(tokensB))
	for _, t := range tokensA {
		union[t] = true
	}
	for _, t := range tokensB {
		union[t] = true
	}

	// Exact matches first.
	setB := make(map[string]bool, len(tokensB))
	for _, t := range tokensB {
		setB[t] = true
	}
	var weight float64
	var restA []string
	for _, t := range tokensA {
		if setB[t] {
			weight++
			delete(setB, t)
			continue
		}
		restA = append(restA, t)
	}
	var restB []string
	for _, t := range tokensB {
		if setB[t] {
			restB = append(restB, t)
		}
	}

	// Greedy fuzzy pairing of the leftovers.
	usedB := make([]bool, len(restB))
	for _, ta := range restA {
		best, bestIdx := 0.0, -1
		for i, tb := range restB {
			if usedB[i] {
				continue
			}
			if s := FuzzyTokenMatch(ta, tb); s > best {
				best, bestIdx = s, i
			}
		}
		if bestIdx >= 0 {
			usedB[bestIdx] = true
			weight += best
		}
	}

	// Substring containment only rescues pairs where nothing else matched.
	if weight == 0 {
		for _, ta := range restA {
			if len(ta) < 4 {
				continue
			}
			for i, tb := range restB {
				if usedB[i] || len(tb) < 4 {
					continue
				}
				if strings.Contains(ta, tb) || strings.Contains(tb, ta) {
					usedB[i] = true
					weight += containWeight
					break
				}
			}
		}
	}

	score := weight / float64(len(union))
	if score > 1 {
		score = 1
	}
	return score
}

func uniqueTokens(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range strings.Fields(s) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
