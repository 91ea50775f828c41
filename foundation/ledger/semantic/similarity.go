package semantic

import "strings"

// Similarity scores how close two paraphrases are in meaning using the
// Dice coefficient over their lowercased token sets. The score is in
// [0, 1] with 1 meaning identical token sets.
func Similarity(a string, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)

	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var common int
	for token := range tokensA {
		if tokensB[token] {
			common++
		}
	}

	return 2 * float64(common) / float64(len(tokensA)+len(tokensB))
}

// MeanPairwise returns the mean similarity across every pair of
// paraphrases. A single paraphrase agrees with itself perfectly.
func MeanPairwise(paraphrases []string) float64 {
	if len(paraphrases) < 2 {
		return 1
	}

	var sum float64
	var pairs int

	for i := 0; i < len(paraphrases); i++ {
		for j := i + 1; j < len(paraphrases); j++ {
			sum += Similarity(paraphrases[i], paraphrases[j])
			pairs++
		}
	}

	return sum / float64(pairs)
}

// tokenSet lowercases and splits the text on whitespace and punctuation.
func tokenSet(s string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		}
		return true
	})

	set := make(map[string]bool, len(fields))
	for _, field := range fields {
		set[field] = true
	}

	return set
}
