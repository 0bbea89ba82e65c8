// Package simhash fingerprints job descriptions so that re-posted or
// lightly edited postings can be recognised as duplicates.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
	"unicode"
)

// DuplicateThreshold is the largest Hamming distance at which two
// description fingerprints are treated as the same posting.
const DuplicateThreshold = 3

// Fingerprint computes a 64-bit SimHash of the given text.
// Uses FNV-64a hash on normalised word tokens with bit vector accumulation,
// so case and punctuation do not change the result.
func Fingerprint(text string) uint64 {
	words := Tokens(text)
	if len(words) == 0 {
		return 0
	}

	var vector [64]int

	for _, word := range words {
		h := fnv.New64a()
		h.Write([]byte(word))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}

	return fingerprint
}

// Tokens lowercases text and splits it into letter/digit runs.
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Distance returns the Hamming distance between two SimHash fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar returns true if the Hamming distance between two fingerprints
// is less than or equal to the threshold.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// IsDuplicate reports whether two non-empty fingerprints are within
// DuplicateThreshold. A zero fingerprint (empty text) never matches.
func IsDuplicate(a, b uint64) bool {
	if a == 0 || b == 0 {
		return false
	}
	return Similar(a, b, DuplicateThreshold)
}
