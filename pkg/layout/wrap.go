package layout

import (
	"context"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// Widther measures rendered text in pixels. Its result must be monotonic
// non-decreasing as characters are appended.
type Widther interface {
	TextWidth(s string) int
}

// Wrap splits text into sub-lines no wider than available pixels.
//
// Each sub-line is the longest prefix of the remaining text, counted in
// grapheme clusters, whose width fits. A cluster that is wider than available
// on its own is emitted alone. Leading whitespace is stripped after every
// cut. When available is not positive the whole text is returned as a single
// sub-line. Empty text yields no sub-lines.
func Wrap(text string, available int, m Widther) []string {
	out, _ := WrapContext(context.Background(), text, available, m)
	return out
}

// WrapContext is [Wrap] with cancellation checked between sub-lines.
func WrapContext(ctx context.Context, text string, available int, m Widther) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	if available <= 0 {
		return []string{text}, nil
	}

	ends := clusterEnds(text)
	var out []string
	base, next := 0, 0
	for next < len(ends) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		k := fit(text[base:], ends[next:], base, available, m)
		if k == 0 {
			k = 1
		}
		cut := ends[next+k-1]
		out = append(out, text[base:cut])
		base, next = cut, next+k
		for next < len(ends) && isSpace(text[base:ends[next]]) {
			base = ends[next]
			next++
		}
	}
	return out, nil
}

// clusterEnds returns the end byte offset of every grapheme cluster in s.
func clusterEnds(s string) []int {
	ends := make([]int, 0, len(s))
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		_, to := g.Positions()
		ends = append(ends, to)
	}
	return ends
}

// fit finds the largest cluster count whose prefix of s fits in available.
// ends are offsets into the full text, which starts base bytes before s.
// The search gallops from the first cluster so its cost follows the length
// of the sub-line, not of s. It returns 0 when not even the first cluster fits.
func fit(s string, ends []int, base, available int, m Widther) int {
	fits := func(n int) bool { return m.TextWidth(s[:ends[n-1]-base]) <= available }
	if !fits(1) {
		return 0
	}
	lo, hi := 1, 2
	for hi <= len(ends) && fits(hi) {
		lo, hi = hi, hi*2
	}
	hi = min(hi-1, len(ends))
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if fits(mid) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

func isSpace(cluster string) bool {
	return strings.TrimLeftFunc(cluster, unicode.IsSpace) == ""
}
