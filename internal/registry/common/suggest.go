package common

import "sort"

// levenshtein computes the classic edit distance between a and b.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = minOf3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func minOf3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// PrefixSuggestions scores every item's key against query by edit distance
// (despite the name, this is a close-match suggestion list, not a strict
// prefix match — "idx" should still suggest "index") and returns the
// closest n whose distance is within a reasonable threshold of query's own
// length.
func PrefixSuggestions[T any](query string, items []T, key func(T) string, n int) []string {
	type scored struct {
		name string
		dist int
	}
	var candidates []scored
	threshold := len(query)/2 + 2

	for _, item := range items {
		k := key(item)
		d := levenshtein(query, k)
		if d <= threshold {
			candidates = append(candidates, scored{name: k, dist: d})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].name < candidates[j].name
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}
	return out
}
