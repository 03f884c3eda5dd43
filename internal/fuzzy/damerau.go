// Package fuzzy implements Damerau-Levenshtein distance, used by the
// keepalive actor to pick the exit whose hostname most closely matches the
// one requested (tolerating typos and adjacent-character transpositions).
package fuzzy

// Distance computes the true Damerau-Levenshtein distance between a and b:
// the minimum number of insertions, deletions, substitutions, and
// transpositions of adjacent characters needed to turn a into b. Unlike
// the restricted "optimal string alignment" variant, this allows a
// transposed pair to be edited again afterward, which is what the name
// Damerau-Levenshtein actually refers to.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	// da tracks the last row at which each rune was seen, needed to detect
	// transpositions beyond the immediately preceding pair.
	da := make(map[rune]int)

	// d is a (la+2) x (lb+2) matrix per the standard Damerau-Levenshtein
	// algorithm with an extra sentinel row/column.
	maxDist := la + lb
	d := make([][]int, la+2)
	for i := range d {
		d[i] = make([]int, lb+2)
	}
	d[0][0] = maxDist
	for i := 0; i <= la; i++ {
		d[i+1][0] = maxDist
		d[i+1][1] = i
	}
	for j := 0; j <= lb; j++ {
		d[0][j+1] = maxDist
		d[1][j+1] = j
	}

	for i := 1; i <= la; i++ {
		db := 0
		for j := 1; j <= lb; j++ {
			i1 := da[rb[j-1]]
			j1 := db
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
				db = j
			}
			del := d[i][j+1] + 1
			ins := d[i+1][j] + 1
			sub := d[i][j] + cost
			trans := d[i1][j1] + (i-i1-1) + 1 + (j-j1-1)
			best := del
			if ins < best {
				best = ins
			}
			if sub < best {
				best = sub
			}
			if trans < best {
				best = trans
			}
			d[i+1][j+1] = best
		}
		da[ra[i-1]] = i
	}

	return d[la+1][lb+1]
}

// Nearest returns the element of candidates with the smallest Damerau-
// Levenshtein distance to target, along with that distance. It returns
// ("", 0, false) if candidates is empty.
func Nearest(target string, candidates []string) (best string, distance int, ok bool) {
	if len(candidates) == 0 {
		return "", 0, false
	}
	best = candidates[0]
	distance = Distance(target, best)
	for _, c := range candidates[1:] {
		if d := Distance(target, c); d < distance {
			best, distance = c, d
		}
	}
	return best, distance, true
}
