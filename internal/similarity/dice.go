// Package similarity implements the string comparison primitives used by the
// record-linkage strategies: bigram Dice overlap, Levenshtein distance and a
// token-set name similarity with fuzzy fallbacks.
package similarity

// Dice computes the Sørensen–Dice coefficient over character bigrams.
// Identical strings score 1; strings shorter than two characters score 0
// unless equal.
func Dice(a, b string) float64 {
	if a == b {
		return 1
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	bigrams := make(map[[2]rune]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		bigrams[[2]rune{ra[i], ra[i+1]}]++
	}

	shared := 0
	for i := 0; i < len(rb)-1; i++ {
		key := [2]rune{rb[i], rb[i+1]}
		if bigrams[key] > 0 {
			bigrams[key]--
			shared++
		}
	}

	return 2 * float64(shared) / float64(len(ra)+len(rb)-2)
}
