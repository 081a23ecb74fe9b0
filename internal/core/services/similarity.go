package services

import (
	"unicode/utf8"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/names"
)

// levenshtein returns the edit distance between a and b, counted in runes.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}

// nameSimilarity compares two names after normalisation and returns
// 1 - distance/maxLen, in [0,1].
func nameSimilarity(a, b string) float64 {
	na, nb := names.Normalise(a), names.Normalise(b)
	maxLen := max(utf8.RuneCountInString(na), utf8.RuneCountInString(nb))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(na, nb))/float64(maxLen)
}
