package lexer

import (
	"fmt"

	arc "github.com/hashicorp/golang-lru/arc/v2"
	"golang.org/x/text/unicode/norm"
)

// SecurityLevel controls how the lexer reacts to visually confusable
// identifiers. All levels NFKC-normalize identifiers; they differ only in
// what happens when two distinct identifiers share a confusable skeleton.
type SecurityLevel int

const (
	// SecurityWarning emits a warning for each confusable pair. Default.
	SecurityWarning SecurityLevel = iota
	// SecurityStrict rejects confusable identifiers with an error.
	SecurityStrict
	// SecurityPermissive normalizes but never reports confusables.
	SecurityPermissive
)

func (s SecurityLevel) String() string {
	switch s {
	case SecurityStrict:
		return "strict"
	case SecurityPermissive:
		return "permissive"
	default:
		return "warning"
	}
}

// SecurityConfig configures Unicode identifier handling.
type SecurityConfig struct {
	Level             SecurityLevel
	DetectConfusables bool
	// CacheSize bounds the normalization and skeleton ARC caches.
	CacheSize int
}

// DefaultSecurityConfig returns the default Unicode security settings:
// warn about confusables, cache up to 10,000 entries.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		Level:             SecurityWarning,
		DetectConfusables: true,
		CacheSize:         10_000,
	}
}

// securityChecker normalizes identifiers and tracks confusable skeletons
// across a single lexing session. Caches are bounded so hostile inputs with
// unbounded distinct identifiers cannot exhaust memory.
type securityChecker struct {
	cfg       SecurityConfig
	normCache *arc.ARCCache[string, string]
	skelCache *arc.ARCCache[string, string]
	// seen maps skeleton -> first normalized identifier observed with it.
	seen map[string]string
	// warned dedupes reports, keyed by skeleton+identifier.
	warned map[string]struct{}
}

func newSecurityChecker(cfg SecurityConfig) *securityChecker {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 10_000
	}
	normCache, err := arc.NewARC[string, string](cfg.CacheSize)
	if err != nil {
		panic(err)
	}
	skelCache, err := arc.NewARC[string, string](cfg.CacheSize)
	if err != nil {
		panic(err)
	}
	return &securityChecker{
		cfg:       cfg,
		normCache: normCache,
		skelCache: skelCache,
		seen:      make(map[string]string),
		warned:    make(map[string]struct{}),
	}
}

// normalize returns the NFKC form of an identifier. Pure-ASCII identifiers
// are already normalized and skip the transform.
func (c *securityChecker) normalize(ident string) string {
	if isASCII(ident) {
		return ident
	}
	if cached, ok := c.normCache.Get(ident); ok {
		return cached
	}
	normalized := norm.NFKC.String(ident)
	c.normCache.Add(ident, normalized)
	return normalized
}

// check normalizes ident and reports confusable collisions against
// identifiers seen earlier in the same session. The ASCII fast path skips
// normalization but still records the skeleton, so a Latin identifier and
// its later Cyrillic lookalike collide regardless of which comes first.
func (c *securityChecker) check(ident string, span Span) (string, []LexError) {
	normalized := c.normalize(ident)
	if !c.cfg.DetectConfusables {
		return normalized, nil
	}

	skeleton := c.skeleton(normalized)
	first, collided := c.seen[skeleton]
	if !collided {
		c.seen[skeleton] = normalized
		return normalized, nil
	}
	if first == normalized {
		return normalized, nil
	}

	key := skeleton + ":" + normalized
	if _, done := c.warned[key]; done {
		return normalized, nil
	}
	c.warned[key] = struct{}{}

	if c.cfg.Level == SecurityPermissive {
		return normalized, nil
	}

	severity := SeverityWarning
	if c.cfg.Level == SecurityStrict {
		severity = SeverityError
	}
	return normalized, []LexError{{
		Kind:     ErrConfusableIdent,
		Severity: severity,
		Message: fmt.Sprintf(
			"identifier %q is visually confusable with %q", normalized, first),
		Span: span,
	}}
}

func (c *securityChecker) skeleton(s string) string {
	if cached, ok := c.skelCache.Get(s); ok {
		return cached
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, confusableSkeletonRune(r))
	}
	skel := string(out)
	c.skelCache.Add(s, skel)
	return skel
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// cyrillicGreekConfusables maps well-known Cyrillic and Greek lookalikes to
// their Latin skeleton, along with small-caps Latin letters.
var cyrillicGreekConfusables = map[rune]rune{
	// Cyrillic
	'а': 'a', 'А': 'A',
	'е': 'e', 'Е': 'E',
	'о': 'o', 'О': 'O',
	'р': 'p', 'Р': 'P',
	'с': 'c', 'С': 'C',
	'х': 'x', 'Х': 'X',
	'у': 'y', 'У': 'Y',
	// Greek
	'α': 'a', 'Α': 'A',
	'ε': 'e', 'Ε': 'E',
	'ο': 'o', 'Ο': 'O',
	'ρ': 'p', 'Ρ': 'P',
	'χ': 'x', 'Χ': 'X',
	'υ': 'y', 'Υ': 'Y',
	// Small caps
	'ᴀ': 'A', 'ʙ': 'B', 'ᴄ': 'C', 'ᴅ': 'D', 'ᴇ': 'E', 'ꜰ': 'F',
	'ɢ': 'G', 'ʜ': 'H', 'ɪ': 'I', 'ᴊ': 'J', 'ᴋ': 'K', 'ʟ': 'L',
	'ᴍ': 'M', 'ɴ': 'N', 'ᴏ': 'O', 'ᴘ': 'P', 'ʀ': 'R', 'ꜱ': 'S',
	'ᴛ': 'T', 'ᴜ': 'U', 'ᴠ': 'V', 'ᴡ': 'W', 'ʏ': 'Y', 'ᴢ': 'Z',
	// Superscript digits with scattered codepoints
	'⁰': '0', '¹': '1', '²': '2', '³': '3', '⁴': '4',
	'⁵': '5', '⁶': '6', '⁷': '7', '⁸': '8', '⁹': '9',
}

// confusableSkeletonRune folds a rune to its Latin/digit skeleton, covering
// Cyrillic and Greek lookalikes, mathematical alphanumerics, fullwidth forms,
// small caps, and sub/superscript digits. Anything else is kept as-is.
func confusableSkeletonRune(r rune) rune {
	if skel, ok := cyrillicGreekConfusables[r]; ok {
		return skel
	}
	switch {
	// Mathematical alphanumeric symbols: bold, italic, bold italic
	case r >= '𝐚' && r <= '𝐳':
		return 'a' + (r - '𝐚')
	case r >= '𝐀' && r <= '𝐙':
		return 'A' + (r - '𝐀')
	case r >= '𝑎' && r <= '𝑧':
		return 'a' + (r - '𝑎')
	case r >= '𝐴' && r <= '𝑍':
		return 'A' + (r - '𝐴')
	case r >= '𝒂' && r <= '𝒛':
		return 'a' + (r - '𝒂')
	case r >= '𝑨' && r <= '𝒁':
		return 'A' + (r - '𝑨')
	// Fullwidth forms
	case r >= 'ａ' && r <= 'ｚ':
		return 'a' + (r - 'ａ')
	case r >= 'Ａ' && r <= 'Ｚ':
		return 'A' + (r - 'Ａ')
	case r >= '０' && r <= '９':
		return '0' + (r - '０')
	// Subscript digits
	case r >= '₀' && r <= '₉':
		return '0' + (r - '₀')
	}
	return r
}
