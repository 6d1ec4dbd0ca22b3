package extract

import (
	"strconv"
	"strings"

	"github.com/tercih-asistani/app/models"
	"github.com/tercih-asistani/internal/normalizer"
)

// EntityExtractor pulls candidate entity mentions out of normalized text
// using boundary heuristics and gazetteer hint tokens. It never fails: a
// category with no mention yields an empty slot, and every candidate is
// passed unresolved to the fuzzy resolver for ranking.
type EntityExtractor struct {
	stopwords    map[string]struct{}
	examTokens   map[string]models.ExamType
	instHints    []string
	programHints []string
}

// Mentions are the raw, unresolved slot candidates of one message.
type Mentions struct {
	Institutions []string        `json:"institutions,omitempty"`
	Programs     []string        `json:"programs,omitempty"`
	ExamType     models.ExamType `json:"exam_type,omitempty"`
	TargetScore  *float64        `json:"target_score,omitempty"`
}

// Target scores outside this band are not plausible YKS placement scores.
const (
	minPlausibleScore = 0
	maxPlausibleScore = 600
)

// NewEntityExtractor builds the extraction tables. All phrases are in the
// normalizer's output alphabet.
func NewEntityExtractor() *EntityExtractor {
	stop := []string{
		"icin", "kac", "ne", "kadar", "mi", "mu", "misin", "musun", "bana",
		"bu", "su", "ile", "ve", "veya", "gerekir", "gerek", "lazim", "net",
		"puan", "puani", "puanla", "taban", "kontenjan", "kontenjani",
		"siralama", "siralamasi", "yapmam", "yapmaliyim", "dogru", "hangi",
		"neler", "nedir", "var", "istiyorum", "kazanmak", "kazanmam",
		"girmek", "girilir", "okumak", "acaba", "peki", "hedefim",
		"hedefliyorum", "aliyor", "alacak", "kisi", "ogrenci", "yil", "yili",
		"universiteler", "universitelerde",
	}
	ee := &EntityExtractor{
		stopwords: make(map[string]struct{}, len(stop)),
		examTokens: map[string]models.ExamType{
			"tyt":     models.ExamTypeTYT,
			"say":     models.ExamTypeSAY,
			"sayisal": models.ExamTypeSAY,
			"ea":      models.ExamTypeEA,
			"soz":     models.ExamTypeSOZ,
			"sozel":   models.ExamTypeSOZ,
			"dil":     models.ExamTypeDIL,
		},
		instHints: []string{"universitesi", "universite", "uni"},
		programHints: []string{
			"muhendislik", "muhendisligi", "bolum", "bolumu", "ogretmenlik",
			"ogretmenligi", "program", "programi", "fakulte", "fakultesi",
			"tip", "hukuk", "psikoloji", "mimarlik", "hemsirelik", "iktisat",
			"isletme", "eczacilik", "dis", "veterinerlik",
		},
	}
	for _, w := range stop {
		ee.stopwords[w] = struct{}{}
	}
	return ee
}

// Extract runs all categories independently of intent.
func (ee *EntityExtractor) Extract(norm normalizer.Result) Mentions {
	mentions := Mentions{}
	tokens := strings.Fields(norm.Text)

	// Exam type: first explicit token wins. "esit agirlik" is two tokens.
	for i, tok := range tokens {
		if et, ok := ee.examTokens[tok]; ok {
			mentions.ExamType = et
			break
		}
		if tok == "esit" && i+1 < len(tokens) && tokens[i+1] == "agirlik" {
			mentions.ExamType = models.ExamTypeEA
			break
		}
	}

	mentions.TargetScore = ee.pickTargetScore(tokens, norm.Numbers)

	// Phrase chunks between connector words feed the name categories.
	for _, chunk := range ee.chunk(tokens) {
		ee.classifyChunk(chunk, &mentions)
	}

	mentions.Institutions = dedup(mentions.Institutions)
	mentions.Programs = dedup(mentions.Programs)
	return mentions
}

// pickTargetScore takes the first numeric literal in the plausible score
// band that is not a net count ("80 net") or a question count.
func (ee *EntityExtractor) pickTargetScore(tokens []string, numbers []float64) *float64 {
	for _, n := range numbers {
		if n < minPlausibleScore || n > maxPlausibleScore {
			continue
		}
		if ee.numberPrecedes(tokens, n, "net") || ee.numberPrecedes(tokens, n, "soru") {
			continue
		}
		v := n
		return &v
	}
	return nil
}

// numberPrecedes reports whether the literal for n is directly followed by
// the given token in the text.
func (ee *EntityExtractor) numberPrecedes(tokens []string, n float64, follow string) bool {
	for i, tok := range tokens {
		if !isNumericToken(tok) {
			continue
		}
		if parseApprox(tok) == n && i+1 < len(tokens) && tokens[i+1] == follow {
			return true
		}
	}
	return false
}

// chunk splits the token stream at stopwords, numbers and exam-type tokens.
func (ee *EntityExtractor) chunk(tokens []string) [][]string {
	var chunks [][]string
	var current []string
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
		}
	}
	for _, tok := range tokens {
		_, isStop := ee.stopwords[tok]
		_, isExam := ee.examTokens[tok]
		if isStop || isExam || isNumericToken(tok) || len(tok) < 2 {
			flush()
			continue
		}
		current = append(current, tok)
	}
	flush()
	return chunks
}

// classifyChunk assigns a chunk's substrings to the name categories. When a
// hint token splits the chunk, both sides are emitted; when nothing hints,
// the whole chunk is offered to both categories and the resolver ranks it.
func (ee *EntityExtractor) classifyChunk(chunk []string, m *Mentions) {
	instIdx := ee.lastHintIndex(chunk, ee.instHints)
	progIdx := ee.firstHintIndex(chunk, ee.programHints)

	if instIdx >= 0 {
		m.Institutions = append(m.Institutions, strings.Join(chunk[:instIdx+1], " "))
		rest := chunk[instIdx+1:]
		if len(rest) > 0 {
			m.Programs = append(m.Programs, strings.Join(rest, " "))
		}
		return
	}

	if progIdx >= 0 {
		// The hint word plus one or two preceding modifiers usually forms
		// the program name; anything left of that is institution-like.
		for back := 1; back <= 2; back++ {
			start := progIdx - back
			if start < 0 {
				break
			}
			m.Programs = append(m.Programs, strings.Join(chunk[start:progIdx+1], " "))
			if start > 0 {
				m.Institutions = append(m.Institutions, strings.Join(chunk[:start], " "))
			}
		}
		m.Programs = append(m.Programs, chunk[progIdx])
		if progIdx > 0 {
			m.Institutions = append(m.Institutions, strings.Join(chunk[:progIdx], " "))
		}
		return
	}

	whole := strings.Join(chunk, " ")
	m.Institutions = append(m.Institutions, whole)
	m.Programs = append(m.Programs, whole)
}

func (ee *EntityExtractor) firstHintIndex(chunk []string, hints []string) int {
	for i, tok := range chunk {
		for _, h := range hints {
			if tok == h {
				return i
			}
		}
	}
	return -1
}

func (ee *EntityExtractor) lastHintIndex(chunk []string, hints []string) int {
	for i := len(chunk) - 1; i >= 0; i-- {
		for _, h := range hints {
			if chunk[i] == h {
				return i
			}
		}
	}
	return -1
}

func isNumericToken(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

func parseApprox(tok string) float64 {
	v, err := strconv.ParseFloat(strings.Trim(tok, "."), 64)
	if err != nil {
		return -1
	}
	return v
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if len(s) < 2 {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
