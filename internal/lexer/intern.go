package lexer

import (
	arc "github.com/hashicorp/golang-lru/arc/v2"
)

// DefaultInternerSize bounds how many distinct spellings the interner
// retains. Adversarial inputs with millions of unique identifiers evict
// older entries instead of growing without bound.
const DefaultInternerSize = 10_000

// Interner deduplicates identifier and string spellings behind a bounded
// ARC cache. Interning is an optimization only: a miss after eviction
// returns the input string unchanged.
type Interner struct {
	cache *arc.ARCCache[string, string]
}

// NewInterner creates an interner holding at most size entries.
func NewInterner(size int) *Interner {
	if size <= 0 {
		size = DefaultInternerSize
	}
	cache, err := arc.NewARC[string, string](size)
	if err != nil {
		// NewARC only fails on a non-positive size, which we ruled out.
		panic(err)
	}
	return &Interner{cache: cache}
}

// Intern returns a canonical copy of s, reusing a previously seen
// instance when one is cached.
func (in *Interner) Intern(s string) string {
	if canon, ok := in.cache.Get(s); ok {
		return canon
	}
	in.cache.Add(s, s)
	return s
}

// Len returns the number of cached spellings.
func (in *Interner) Len() int {
	return in.cache.Len()
}
