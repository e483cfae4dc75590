package normalize

import (
	"regexp"
	"strings"
)

// Rule is one decoration pattern. Rules are plain data so the set can be
// extended from configuration without touching the algorithm; Pattern is a
// case-insensitive regular expression.
type Rule struct {
	Name    string
	Pattern string
}

// DefaultRules matches the slowed/reverb title decorations seen in the wild.
// Order matters: more specific forms come before the bare keywords so a
// single removal leaves no half-stripped residue behind.
func DefaultRules() []Rule {
	return []Rule{
		{"paren-slowed-reverb", `\(\s*(super\s*)?slowed\s*[+&]?\s*reverb\s*\)`},
		{"paren-slowed", `\(\s*(super\s*)?slowed\s*\)`},
		{"bracket-slowed-reverb", `\[\s*(super\s*)?slowed\s*[+&]?\s*reverb\s*\]`},
		{"bracket-slowed", `\[\s*(super\s*)?slowed\s*\]`},
		{"tilde-slowed", `~\s*(super\s*)?slowed.*$`},
		{"dash-slowed", `-\s*(super\s*)?slowed.*$`},
		{"bare-slowed-reverb", `\b(super\s*)?slowed\s*(and|\+|&)?\s*reverb\b`},
		{"slowed-version", `\b(super\s*)?slowed\s*version\b`},
		{"sped-down", `\bsped\s*down\b`},
		{"pitched-down", `\bpitched\s*down\b`},
		{"star-deluxe", `☆\s*deluxe`},
	}
}

// Result is the normalizer's best guess at the original song identity.
type Result struct {
	CleanTitle string
	Artist     string
	Modified   bool
}

type Normalizer struct {
	rules []compiledRule
}

type compiledRule struct {
	name string
	re   *regexp.Regexp
}

func New(rules []Rule) (*Normalizer, error) {
	n := &Normalizer{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		re, err := regexp.Compile(`(?i)` + r.Pattern)
		if err != nil {
			return nil, err
		}
		n.rules = append(n.rules, compiledRule{name: r.Name, re: re})
	}
	return n, nil
}

// Default returns a normalizer with the built-in rule set.
func Default() *Normalizer {
	n, err := New(DefaultRules())
	if err != nil {
		// the built-in patterns are compile-tested
		panic(err)
	}
	return n
}

// Normalize strips slowed/reverb decoration from a raw title and extracts a
// best-guess (artist, title) pair. It is a pure function: worst case the
// title passes through unchanged and resolution simply finds nothing.
// Re-running Normalize on an already-clean title is a no-op.
func (n *Normalizer) Normalize(rawTitle, rawArtist string) Result {
	title := foldFullwidth(rawTitle)
	title = ytSuffixRe.ReplaceAllString(title, "")

	modified := false
	for _, rule := range n.rules {
		if rule.re.MatchString(title) {
			title = rule.re.ReplaceAllString(title, " ")
			modified = true
		}
	}

	title = trimResidue(title)

	artist := strings.TrimSpace(rawArtist)
	if artist == "" {
		artist, title = splitArtistTitle(title)
	}

	return Result{
		CleanTitle: title,
		Artist:     artist,
		Modified:   modified,
	}
}

var (
	ytSuffixRe     = regexp.MustCompile(`\s*-\s*YouTube Music$`)
	emptyBracketRe = regexp.MustCompile(`\(\s*\)|\[\s*\]|\{\s*\}`)
	spaceRe        = regexp.MustCompile(`\s+`)
	trailingSepRe  = regexp.MustCompile(`\s*[~\-|/／–—]+\s*$`)
	leadingSepRe   = regexp.MustCompile(`^\s*[~\-|/／–—]+\s*`)
)

// trimResidue cleans up what pattern removal leaves behind: empty bracket
// pairs, dangling separators and stray quotes.
func trimResidue(s string) string {
	s = emptyBracketRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = trailingSepRe.ReplaceAllString(s, "")
	s = leadingSepRe.ReplaceAllString(s, "")
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// titleSeparators are tried in order; the first hit splits the string into
// (artist, title).
var titleSeparators = []string{" - ", " – ", " — ", " ~ ", " | ", "- ", " -", "–", "—"}

func splitArtistTitle(s string) (artist, title string) {
	for _, sep := range titleSeparators {
		idx := strings.Index(s, sep)
		if idx <= 0 {
			continue
		}
		left := strings.TrimSpace(s[:idx])
		right := strings.TrimSpace(s[idx+len(sep):])
		if left != "" && right != "" {
			return left, right
		}
	}
	return "", s
}

// foldFullwidth maps fullwidth ASCII variants (ｓｌｏｗｅｄ) onto their
// plain forms so the pattern rules can see them.
func foldFullwidth(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 0xFF01 && r <= 0xFF5E:
			b.WriteRune(r - 0xFEE0)
		case r == 0x3000:
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
