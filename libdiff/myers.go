package libdiff

import (
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// myers maps every distinct line to a rune and diffs the rune strings.
func myers(from, to []string) []Line {
	lineMap := map[string]rune{}
	fromRunes := mapLinesTo(lineMap, from)
	toRunes := mapLinesTo(lineMap, to)
	diffs := diffpatch.New().DiffMainRunes(fromRunes, toRunes, false)

	res := make([]Line, 0, max(len(from), len(to)))
	fi, ti := 0, 0
	for i := range diffs {
		diff := &diffs[i]
		for range diff.Text {
			switch diff.Type {
			case diffpatch.DiffDelete:
				res = append(res, Line{Number: fi + 1, Content: from[fi], Kind: Removed})
				fi++
			case diffpatch.DiffEqual:
				res = append(res, Line{Number: ti + 1, Content: to[ti], Kind: Unchanged})
				fi++
				ti++
			case diffpatch.DiffInsert:
				res = append(res, Line{Number: ti + 1, Content: to[ti], Kind: Added})
				ti++
			}
		}
	}
	return res
}

func mapLinesTo(m map[string]rune, lines []string) []rune {
	rs := make([]rune, len(lines))
	for i, l := range lines {
		r, ok := m[l]
		if !ok {
			r = rune(len(m))
			if r >= 0xD800 {
				// skip the surrogate range, which strings cannot hold
				r += 0x800
			}
			m[l] = r
		}
		rs[i] = r
	}
	return rs
}
