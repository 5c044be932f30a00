package catalog

// NeutralContext is the word list used when a universe has none of its own.
const NeutralContext = "neutral"

// Rand is the subset of *math/rand.Rand the picker needs.
type Rand interface {
	Intn(n int) int
}

// WordPicker hands out random words without repeating any until Reset. It
// keeps its own record of used words, so the catalog itself stays untouched.
type WordPicker struct {
	catalog Catalog
	rng     Rand
	used    map[string]bool
}

func NewWordPicker(c Catalog, rng Rand) *WordPicker {
	return &WordPicker{
		catalog: c,
		rng:     rng,
		used:    make(map[string]bool),
	}
}

// Pick returns an unused word from the given universe's list, falling back to
// the neutral list when the universe has no words.
func (p *WordPicker) Pick(universe string) (string, bool) {
	words := p.catalog.Words(universe)
	if len(words) == 0 {
		words = p.catalog.Words(NeutralContext)
	}

	available := words[:0:0]
	for _, w := range words {
		if !p.used[w] {
			available = append(available, w)
		}
	}
	if len(available) == 0 {
		return "", false
	}

	w := available[p.rng.Intn(len(available))]
	p.used[w] = true

	return w, true
}

// PickN returns up to n distinct unused words.
func (p *WordPicker) PickN(universe string, n int) []string {
	out := make([]string, 0, n)
	for range n {
		w, ok := p.Pick(universe)
		if !ok {
			break
		}
		out = append(out, w)
	}
	return out
}

func (p *WordPicker) Reset() {
	clear(p.used)
}
