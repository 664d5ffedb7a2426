package tools

import "strings"

// fuzzyMatch returns true if query fuzzy matches target. Used to resolve
// spoken category names ("electronic", "sneaker") against catalog category
// names, where voice transcription routinely drops or mangles characters.
func fuzzyMatch(query, target string) bool {
	if query == "" {
		return true
	}

	queryLower := strings.ToLower(query)
	targetLower := strings.ToLower(target)

	// Exact substring match (fast path)
	if strings.Contains(targetLower, queryLower) {
		return true
	}

	// Allowed edit distance scales with query length; short queries get
	// stricter matching.
	maxDistance := len(queryLower) / 3
	if maxDistance < 1 {
		maxDistance = 1
	}
	if maxDistance > 3 {
		maxDistance = 3
	}

	// Compare against each word of the target ("Home & Kitchen" -> home,
	// kitchen).
	words := strings.FieldsFunc(targetLower, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '&'
	})

	for _, word := range words {
		if levenshteinDistance(queryLower, word) <= maxDistance {
			return true
		}
	}

	return false
}

// levenshteinDistance calculates the minimum number of single-character
// edits (insertions, deletions, or substitutions) required to change one
// string into another.
func levenshteinDistance(s1, s2 string) int {
	len1, len2 := len(s1), len(s2)

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
	}

	for i := 0; i <= len1; i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len1][len2]
}
