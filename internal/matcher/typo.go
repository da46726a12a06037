package matcher

// typoCost returns the number of typos between the query word and a
// dictionary word, bounded by budget. A mismatch on the first character
// always costs two typos regardless of the remaining budget, so a one-typo
// budget can never repair the first letter.
func typoCost(query, word string, budget int) (int, bool) {
	if query == word {
		return 0, true
	}
	if budget <= 0 {
		return 0, false
	}
	q, w := []rune(query), []rune(word)
	if len(q) > 0 && len(w) > 0 && q[0] != w[0] {
		if budget < 2 {
			return 0, false
		}
		d, ok := levenshtein(q[1:], w[1:], budget-2)
		if !ok {
			return 0, false
		}
		return d + 2, true
	}
	if len(q) > 0 && len(w) > 0 {
		q, w = q[1:], w[1:]
	}
	return levenshtein(q, w, budget)
}

// levenshtein computes the edit distance between a and b, giving up as soon
// as every cell of a row exceeds bound.
func levenshtein(a, b []rune, bound int) (int, bool) {
	if abs(len(a)-len(b)) > bound {
		return 0, false
	}
	if len(a) == 0 {
		return len(b), len(b) <= bound
	}
	if len(b) == 0 {
		return len(a), len(a) <= bound
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > bound {
			return 0, false
		}
		prev, curr = curr, prev
	}
	d := prev[len(b)]
	return d, d <= bound
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
