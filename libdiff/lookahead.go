package libdiff

import "slices"

// lookahead aligns from and to with two cursors. On a mismatch, if from[i]
// occurs later in to, to[j] was inserted; if to[j] occurs later in from,
// from[i] was removed. When both hold the nearer occurrence wins, ties
// going to insertion. Otherwise the pair is a replacement.
func lookahead(from, to []string) []Line {
	res := make([]Line, 0, max(len(from), len(to)))
	i, j := 0, 0
	for i < len(from) && j < len(to) {
		if from[i] == to[j] {
			res = append(res, Line{Number: j + 1, Content: to[j], Kind: Unchanged})
			i++
			j++
			continue
		}
		ins := indexFrom(to, j+1, from[i])
		del := indexFrom(from, i+1, to[j])
		switch {
		case ins >= 0 && (del < 0 || ins-j <= del-i):
			res = append(res, Line{Number: j + 1, Content: to[j], Kind: Added})
			j++
		case del >= 0:
			res = append(res, Line{Number: i + 1, Content: from[i], Kind: Removed})
			i++
		default:
			res = append(res,
				Line{Number: i + 1, Content: from[i], Kind: Removed},
				Line{Number: j + 1, Content: to[j], Kind: Added})
			i++
			j++
		}
	}
	for ; i < len(from); i++ {
		res = append(res, Line{Number: i + 1, Content: from[i], Kind: Removed})
	}
	for ; j < len(to); j++ {
		res = append(res, Line{Number: j + 1, Content: to[j], Kind: Added})
	}
	return res
}

func indexFrom(xs []string, start int, s string) int {
	if start >= len(xs) {
		return -1
	}
	k := slices.Index(xs[start:], s)
	if k < 0 {
		return -1
	}
	return start + k
}
