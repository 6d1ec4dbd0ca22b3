package resolver

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/agnivade/levenshtein"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xrash/smetrics"
	"go.uber.org/zap"

	"github.com/tercih-asistani/app/models"
)

// Kind selects which index a mention is resolved against.
type Kind string

const (
	KindInstitution Kind = "institution"
	KindProgram     Kind = "program"
)

// Status of one resolution attempt.
type Status string

const (
	StatusResolved  Status = "resolved"
	StatusAmbiguous Status = "ambiguous"
	StatusNotFound  Status = "not_found"
)

// Config holds the acceptance policy. The threshold and margin are not fixed
// by the domain; they are tuned empirically and surfaced as configuration.
type Config struct {
	AcceptThreshold float64 `yaml:"accept_threshold" json:"accept_threshold"`
	AmbiguityMargin float64 `yaml:"ambiguity_margin" json:"ambiguity_margin"`
	MinSimilarity   float64 `yaml:"min_similarity" json:"min_similarity"`
	TopK            int     `yaml:"top_k" json:"top_k"`
	CacheSize       int     `yaml:"cache_size" json:"cache_size"`
}

// DefaultConfig values chosen against the seeded catalog fixtures.
func DefaultConfig() Config {
	return Config{
		AcceptThreshold: 0.72,
		AmbiguityMargin: 0.08,
		MinSimilarity:   0.45,
		TopK:            5,
		CacheSize:       4096,
	}
}

// Outcome is the result of resolving one mention.
type Outcome struct {
	Status     Status             `json:"status"`
	Resolved   *models.EntityRef  `json:"resolved,omitempty"`
	InstID     string             `json:"inst_id,omitempty"` // owning institution of a resolved program
	Candidates []models.Candidate `json:"candidates,omitempty"`
}

// Resolver ranks mentions against the current catalog snapshot. Lookups are
// lock-free: readers load the index through an atomic pointer and a rebuild
// swaps in a complete replacement. Rankings are memoized in a bounded LRU
// keyed by (kind, scope, mention, snapshot version), so a swap implicitly
// invalidates every stale entry.
type Resolver struct {
	idx    atomic.Pointer[Index]
	cfg    Config
	cache  *lru.Cache[string, []models.Candidate]
	logger *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewResolver creates a resolver with an empty snapshot.
func NewResolver(cfg Config, logger *zap.Logger) (*Resolver, error) {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}
	cache, err := lru.New[string, []models.Candidate](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("resolver cache: %w", err)
	}
	r := &Resolver{cfg: cfg, cache: cache, logger: logger}
	r.idx.Store(&Index{})
	return r, nil
}

// Swap atomically replaces the catalog snapshot.
func (r *Resolver) Swap(idx *Index) {
	r.idx.Store(idx)
	r.logger.Info("resolver index swapped",
		zap.String("version", idx.Version()),
		zap.Int("institutions", idx.InstitutionCount()),
		zap.Int("programs", idx.ProgramCount()))
}

// Snapshot returns the current index.
func (r *Resolver) Snapshot() *Index { return r.idx.Load() }

// CacheStats reports memoization counters for the admin surface.
func (r *Resolver) CacheStats() (hits, misses int64, size int) {
	return r.hits.Load(), r.misses.Load(), r.cache.Len()
}

// Rank scores a normalized mention against every entry of the chosen index
// and returns candidates in descending score order. Ties sort by entity ID so
// identical input on an identical snapshot always yields the same list.
func (r *Resolver) Rank(kind Kind, mention, scopeInstID string) []models.Candidate {
	return r.rankOn(r.idx.Load(), kind, mention, scopeInstID)
}

// rankOn runs the ranking against one pinned snapshot so a resolution never
// mixes entries from indexes on either side of a swap.
func (r *Resolver) rankOn(idx *Index, kind Kind, mention, scopeInstID string) []models.Candidate {
	mention = strings.TrimSpace(mention)
	if mention == "" {
		return nil
	}

	key := string(kind) + "\x1f" + scopeInstID + "\x1f" + mention + "\x1f" + idx.Version()
	if cached, ok := r.cache.Get(key); ok {
		r.hits.Add(1)
		return cached
	}
	r.misses.Add(1)

	var entries []Entry
	if kind == KindInstitution {
		entries = idx.institutions
	} else {
		entries = idx.programEntries(scopeInstID)
	}

	candidates := make([]models.Candidate, 0, len(entries))
	for _, e := range entries {
		score := r.scoreEntry(mention, e)
		if score < r.cfg.MinSimilarity {
			continue
		}
		candidates = append(candidates, models.Candidate{ID: e.ID, Name: e.Name, Score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})
	if len(candidates) > r.cfg.TopK {
		candidates = candidates[:r.cfg.TopK]
	}

	r.cache.Add(key, candidates)
	return candidates
}

// Resolve applies the acceptance policy: the top candidate wins only when it
// clears the threshold and leads the runner-up by the ambiguity margin.
func (r *Resolver) Resolve(kind Kind, mention, scopeInstID string) Outcome {
	idx := r.idx.Load()
	candidates := r.rankOn(idx, kind, mention, scopeInstID)
	if len(candidates) == 0 {
		return Outcome{Status: StatusNotFound}
	}

	top := candidates[0]
	lead := top.Score
	if len(candidates) > 1 {
		lead = top.Score - candidates[1].Score
	}

	if top.Score >= r.cfg.AcceptThreshold && (len(candidates) == 1 || lead >= r.cfg.AmbiguityMargin) {
		outcome := Outcome{
			Status:     StatusResolved,
			Resolved:   &models.EntityRef{ID: top.ID, Name: top.Name, Score: top.Score},
			Candidates: candidates,
		}
		if kind == KindProgram {
			outcome.InstID = idx.ownerOf(top.ID)
		}
		return outcome
	}
	return Outcome{Status: StatusAmbiguous, Candidates: candidates}
}

// ResolveBest tries every extracted mention for a slot and keeps the
// strongest outcome: a resolution beats an ambiguity, which beats a miss.
func (r *Resolver) ResolveBest(kind Kind, mentions []string, scopeInstID string) Outcome {
	best := Outcome{Status: StatusNotFound}
	for _, mention := range mentions {
		o := r.Resolve(kind, mention, scopeInstID)
		if better(o, best) {
			best = o
		}
	}
	return best
}

func better(a, b Outcome) bool {
	rank := func(o Outcome) int {
		switch o.Status {
		case StatusResolved:
			return 2
		case StatusAmbiguous:
			return 1
		default:
			return 0
		}
	}
	if rank(a) != rank(b) {
		return rank(a) > rank(b)
	}
	return topScore(a) > topScore(b)
}

func topScore(o Outcome) float64 {
	if len(o.Candidates) == 0 {
		return 0
	}
	return o.Candidates[0].Score
}

// scoreEntry is the per-entity similarity: exact match, then substring
// containment as a strong match, then the better of Jaro-Winkler and a
// length-normalized Levenshtein. Short mentions need a stricter fuzzy score
// since a one-letter acronym typo lands on a different institution.
func (r *Resolver) scoreEntry(mention string, e Entry) float64 {
	best := 0.0
	for _, term := range e.Terms {
		s := similarity(mention, term)
		if s > best {
			best = s
		}
	}
	return best
}

func similarity(mention, term string) float64 {
	if mention == term {
		return 1.0
	}

	shorter, longer := mention, term
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) >= 3 && strings.Contains(longer, shorter) {
		ratio := float64(len(shorter)) / float64(len(longer))
		return 0.75 + 0.20*ratio
	}

	jw := smetrics.JaroWinkler(mention, term, 0.7, 4)
	dist := levenshtein.ComputeDistance(mention, term)
	maxLen := math.Max(float64(len(mention)), float64(len(term)))
	lev := 1.0 - float64(dist)/maxLen

	score := math.Max(jw, lev)
	if len(mention) <= 4 && score < 0.90 {
		return 0.0
	}
	if len(mention) <= 10 && score < 0.70 {
		return 0.0
	}
	return score
}

