package layout

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode"
)

// fixedWidth measures every rune at def pixels unless listed in wide.
type fixedWidth struct {
	def  int
	wide map[rune]int
}

func (f fixedWidth) TextWidth(s string) int {
	total := 0
	for _, r := range s {
		if w, ok := f.wide[r]; ok {
			total += w
			continue
		}
		total += f.def
	}
	return total
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func TestWrap(t *testing.T) {
	mono := fixedWidth{def: 10}
	tests := []struct {
		name      string
		text      string
		available int
		want      []string
	}{
		{"empty", "", 100, nil},
		{"fits", "hello", 50, []string{"hello"}},
		{"single char", "x", 10, []string{"x"}},
		{"exact split", "abcdef", 30, []string{"abc", "def"}},
		{"strips leading space", "ab   cd", 20, []string{"ab", "cd"}},
		{"trailing space dropped", "ab  ", 20, []string{"ab"}},
		{"oversized char alone", "abc", 5, []string{"a", "b", "c"}},
		{"zero width keeps line", "abc def", 0, []string{"abc def"}},
		{"negative width keeps line", "abc", -10, []string{"abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.text, tt.available, mono)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("Wrap(%q, %d) = %q, want %q", tt.text, tt.available, got, tt.want)
			}
		})
	}
}

func TestWrapProperties(t *testing.T) {
	m := fixedWidth{def: 9, wide: map[rune]int{'W': 17, '😀': 24, '🚀': 24, 'i': 4, '\u200b': 0}}
	inputs := []string{
		strings.Repeat("a", 500),
		"$ go test ./... && echo 😀😀😀 done 🚀 with WWW and iii",
		"WWWWWWWWWWWWWWWWWWWWWWWWWWWWWWWW",
		"a\u200bb\u200bc\u200bd the quick brown fox jumps over the lazy dog",
		"leading and   inner   spaces",
		"😀",
	}
	widths := []int{1, 8, 9, 23, 24, 25, 100, 1100}

	for _, text := range inputs {
		for _, w := range widths {
			sub := Wrap(text, w, m)
			for _, s := range sub {
				if s == "" {
					t.Errorf("Wrap(%q, %d) produced an empty sub-line", text, w)
				}
				if m.TextWidth(s) > w && len([]rune(s)) != 1 {
					t.Errorf("Wrap(%q, %d): sub-line %q is %dpx wide", text, w, s, m.TextWidth(s))
				}
			}
			if got, want := stripSpace(strings.Join(sub, "")), stripSpace(text); got != want {
				t.Errorf("Wrap(%q, %d) lost characters: got %q", text, w, got)
			}
		}
	}
}

func TestWrapKeepsGraphemeClusters(t *testing.T) {
	family := "\U0001F468\u200d\U0001F469\u200d\U0001F467"
	m := fixedWidth{def: 10}
	for _, s := range Wrap("ab"+family+"cd", 30, m) {
		if strings.Contains(s, "\u200d") && !strings.Contains(s, family) {
			t.Errorf("sub-line %q splits the ZWJ sequence", s)
		}
	}
}

func TestWrapBinarySearchMatchesLinear(t *testing.T) {
	m := fixedWidth{def: 7, wide: map[rune]int{'m': 13, ' ': 4}}
	text := "mmm a mmmm ab m abc mmmmmmmm a b c d e f g"
	for w := 1; w <= 120; w++ {
		rest := text
		for _, s := range Wrap(text, w, m) {
			// The linear longest fitting prefix, in runes.
			runes := []rune(rest)
			k := 0
			for k < len(runes) && m.TextWidth(string(runes[:k+1])) <= w {
				k++
			}
			k = max(k, 1)
			if want := string(runes[:k]); s != want {
				t.Fatalf("Wrap(%d): sub-line %q, want %q", w, s, want)
			}
			rest = strings.TrimLeftFunc(string(runes[k:]), unicode.IsSpace)
		}
	}
}

func TestWrapLongLineIsFast(t *testing.T) {
	m := fixedWidth{def: 15}
	text := strings.Repeat("a", 100_000)

	start := time.Now()
	sub := Wrap(text, 1120, m)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Wrap of %d chars took %v", len(text), elapsed)
	}
	// 1120/15 = 74 characters per sub-line.
	if want := (len(text) + 73) / 74; len(sub) != want {
		t.Errorf("len(sub) = %d, want %d", len(sub), want)
	}
	for i, s := range sub[:len(sub)-1] {
		if len(s) != 74 {
			t.Fatalf("sub-line %d has %d chars, want 74", i, len(s))
		}
	}
}

func TestWrapContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sub, err := WrapContext(ctx, strings.Repeat("a", 1000), 100, fixedWidth{def: 10})
	if err != context.Canceled {
		t.Errorf("WrapContext() error = %v, want context.Canceled", err)
	}
	if sub != nil {
		t.Errorf("WrapContext() = %q, want nil", sub)
	}
}
