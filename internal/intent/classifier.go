package intent

import (
	"strings"

	"github.com/tercih-asistani/app/models"
)

// trigger is one phrase that votes for an intent. Phrases are written in the
// normalizer's output alphabet (lowercase ASCII), and longer phrases carry
// more weight than bare keywords.
type trigger struct {
	phrase string
	weight float64
}

// Classifier assigns one of the fixed intents to a normalized message using
// weighted substring triggers. It is stateless and deterministic.
type Classifier struct {
	triggers map[models.Intent][]trigger
	minScore float64
}

// Classification is the winning intent with its evidence.
type Classification struct {
	Intent  models.Intent `json:"intent"`
	Score   float64       `json:"score"`
	Matched []string      `json:"matched,omitempty"`
}

// NewClassifier builds the rule table. minScore is the floor below which the
// result degrades to clarification_needed.
func NewClassifier(minScore float64) *Classifier {
	return &Classifier{
		minScore: minScore,
		triggers: map[models.Intent][]trigger{
			models.IntentNetCalculation: {
				{"kac net", 3.0},
				{"net gerekir", 3.0},
				{"net gerek", 2.8},
				{"net lazim", 2.8},
				{"net yapmam", 2.5},
				{"kac dogru", 2.2},
				{"net", 1.0},
			},
			models.IntentBaseScoreLookup: {
				{"taban puan", 3.0},
				{"taban puani", 3.0},
				{"taban siralama", 3.0},
				{"taban siralamasi", 3.0},
				{"puani kac", 2.5},
				{"kac puan", 2.2},
				{"puanla girilir", 2.2},
				{"siralamasi kac", 2.2},
				{"taban", 1.2},
				{"puan", 0.8},
			},
			models.IntentQuotaInquiry: {
				{"kontenjan", 3.0},
				{"kontenjani", 3.0},
				{"kac kisi aliyor", 3.0},
				{"kac ogrenci aliyor", 3.0},
				{"kac kisi alacak", 2.8},
				{"kac kisilik", 2.2},
			},
			models.IntentProgramSearch: {
				{"hangi bolumler", 3.0},
				{"hangi bolum", 2.5},
				{"bolumleri neler", 3.0},
				{"hangi universiteler", 2.5},
				{"hangi universitelerde", 2.5},
				{"bolum var mi", 2.5},
				{"programlari", 1.8},
				{"onerir misin", 1.5},
			},
		},
	}
}

// Classify scores every intent against the normalized text and picks the
// highest; ties fall back to the fixed priority order. Below minScore the
// message needs clarification.
func (c *Classifier) Classify(normalized string) Classification {
	best := Classification{Intent: models.IntentClarificationNeeded}

	for _, in := range models.IntentPriority {
		score := 0.0
		var matched []string
		for _, tr := range c.triggers[in] {
			if containsPhrase(normalized, tr.phrase) {
				score += tr.weight
				matched = append(matched, tr.phrase)
			}
		}
		// Strict > keeps the priority order as the tie-break: earlier
		// intents in models.IntentPriority win equal scores.
		if score > best.Score {
			best = Classification{Intent: in, Score: score, Matched: matched}
		}
	}

	if best.Score < c.minScore {
		return Classification{Intent: models.IntentClarificationNeeded, Score: best.Score, Matched: best.Matched}
	}
	return best
}

// containsPhrase matches a phrase on token boundaries so "net" does not fire
// inside "internet".
func containsPhrase(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		leftOK := start == 0 || text[start-1] == ' '
		rightOK := end == len(text) || text[end] == ' '
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
		if idx >= len(text) {
			return false
		}
	}
}
