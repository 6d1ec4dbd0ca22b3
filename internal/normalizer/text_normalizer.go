package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TextNormalizer canonicalizes raw chat text: Turkish-aware lowercasing,
// diacritic folding, punctuation cleanup and locale number normalization.
// Normalization is pure, total and idempotent; unresolvable runes pass
// through unidecode rather than failing.
type TextNormalizer struct {
	decimalCommaPattern *regexp.Regexp
	punctuationPattern  *regexp.Regexp
	spacePattern        *regexp.Regexp
	numberPattern       *regexp.Regexp
	turkishLower        cases.Caser
}

// Result is the normalized text plus every numeric literal detected in it.
type Result struct {
	Text    string    `json:"text"`
	Numbers []float64 `json:"numbers,omitempty"`
}

// Turkish letters are folded explicitly before the generic NFD pass so that
// dotless ı (which carries no combining mark) still lands on ASCII i.
var turkishFoldMap = map[rune]rune{
	'ç': 'c', 'ğ': 'g', 'ı': 'i', 'ö': 'o', 'ş': 's', 'ü': 'u',
}

// NewTextNormalizer creates a normalizer with precompiled patterns.
func NewTextNormalizer() *TextNormalizer {
	return &TextNormalizer{
		decimalCommaPattern: regexp.MustCompile(`(\d),(\d)`),
		punctuationPattern:  regexp.MustCompile(`[^\p{L}\p{N}. ]+`),
		spacePattern:        regexp.MustCompile(`\s+`),
		numberPattern:       regexp.MustCompile(`^\d+(?:\.\d+)?$`),
		turkishLower:        cases.Lower(language.Turkish),
	}
}

// Normalize returns the canonical form of raw text together with the numeric
// literals it contained.
func (tn *TextNormalizer) Normalize(raw string) Result {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Result{}
	}

	// Lowercase with Turkish casing rules first: İ→i and I→ı must happen
	// before diacritic folding or both collapse onto the wrong letter.
	text = tn.turkishLower.String(text)

	// Decimal commas become dots so "450,5" survives punctuation cleanup.
	text = tn.decimalCommaPattern.ReplaceAllString(text, "$1.$2")

	// Everything that is not a letter, digit, dot or space becomes a space.
	text = tn.punctuationPattern.ReplaceAllString(text, " ")

	// Fold to ASCII.
	text = tn.foldDiacritics(text)

	// Dots only survive inside numeric literals ("450.5"); "prof." loses its.
	tokens := strings.Fields(text)
	numbers := make([]float64, 0, 2)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".")
		if tok == "" {
			continue
		}
		if tn.numberPattern.MatchString(tok) {
			if v, err := strconv.ParseFloat(tok, 64); err == nil {
				numbers = append(numbers, v)
			}
		} else {
			tok = strings.ReplaceAll(tok, ".", " ")
		}
		out = append(out, tok)
	}

	normalized := tn.spacePattern.ReplaceAllString(strings.Join(out, " "), " ")
	return Result{Text: strings.TrimSpace(normalized), Numbers: numbers}
}

// NormalizeTerm normalizes a single catalog name or alias for indexing.
func (tn *TextNormalizer) NormalizeTerm(raw string) string {
	return tn.Normalize(raw).Text
}

// foldDiacritics maps the Turkish alphabet onto ASCII, strips combining marks
// from everything else and falls back to unidecode for the remainder.
func (tn *TextNormalizer) foldDiacritics(input string) string {
	var sb strings.Builder
	sb.Grow(len(input))
	for _, r := range input {
		if folded, ok := turkishFoldMap[r]; ok {
			sb.WriteRune(folded)
		} else {
			sb.WriteRune(r)
		}
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, sb.String())
	if err != nil {
		stripped = sb.String()
	}

	// Unidecode transliterates non-Latin runes with capitalized ASCII
	// ("中" → "Zhong"), and lowercasing already happened. Fold its output
	// too so normalization stays idempotent.
	return strings.ToLower(unidecode.Unidecode(stripped))
}
