package resolver

import (
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tercih-asistani/app/models"
	"github.com/tercih-asistani/internal/normalizer"
)

func fixtureIndex(version string) *Index {
	now := time.Now()
	insts := []models.Institution{
		{InstID: "bogazici", Name: "Boğaziçi Üniversitesi", City: "İstanbul", Aliases: []string{"boün"}, UpdatedAt: now},
		{InstID: "itu", Name: "İstanbul Teknik Üniversitesi", City: "İstanbul", Aliases: []string{"itü"}, UpdatedAt: now},
		{InstID: "trakya", Name: "Trakya Üniversitesi", City: "Edirne", Aliases: []string{"tü"}, UpdatedAt: now},
		{InstID: "hacettepe", Name: "Hacettepe Üniversitesi", City: "Ankara", Aliases: []string{"hü"}, UpdatedAt: now},
	}
	progs := []models.Program{
		{ProgramID: "bogazici-bilgisayar", InstID: "bogazici", Name: "Bilgisayar Mühendisliği"},
		{ProgramID: "itu-bilgisayar", InstID: "itu", Name: "Bilgisayar Mühendisliği"},
		{ProgramID: "itu-elektrik", InstID: "itu", Name: "Elektrik Elektronik Mühendisliği"},
		{ProgramID: "trakya-tip", InstID: "trakya", Name: "Tıp", Aliases: []string{"tıp fakültesi"}},
		{ProgramID: "hacettepe-tip", InstID: "hacettepe", Name: "Tıp", Aliases: []string{"tıp fakültesi"}},
	}
	return BuildIndex(version, insts, progs, normalizer.NewTextNormalizer())
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(DefaultConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	r.Swap(fixtureIndex("v1"))
	return r
}

func TestResolveExactAlias(t *testing.T) {
	r := newTestResolver(t)

	// "tü" normalizes to "tu" and is an exact alias of one institution.
	o := r.Resolve(KindInstitution, "tu", "")
	if o.Status != StatusResolved {
		t.Fatalf("status = %s, candidates %v", o.Status, o.Candidates)
	}
	if o.Resolved.ID != "trakya" {
		t.Errorf("resolved = %s, want trakya", o.Resolved.ID)
	}
	if o.Resolved.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", o.Resolved.Score)
	}
}

func TestResolveShortMentionGuard(t *testing.T) {
	r := newTestResolver(t)

	// A two-letter mention must not fuzzy-land on a longer acronym.
	o := r.Resolve(KindInstitution, "xq", "")
	if o.Status != StatusNotFound {
		t.Errorf("status = %s, want not_found (candidates %v)", o.Status, o.Candidates)
	}
}

func TestResolveTypo(t *testing.T) {
	r := newTestResolver(t)

	o := r.Resolve(KindInstitution, "hacetepe universitesi", "")
	if o.Status != StatusResolved {
		t.Fatalf("status = %s, candidates %v", o.Status, o.Candidates)
	}
	if o.Resolved.ID != "hacettepe" {
		t.Errorf("resolved = %s, want hacettepe", o.Resolved.ID)
	}
}

func TestResolveAmbiguousAcrossInstitutions(t *testing.T) {
	r := newTestResolver(t)

	// Two institutions offer an identically named program; without a scope
	// the tie cannot be broken.
	o := r.Resolve(KindProgram, "tip", "")
	if o.Status != StatusAmbiguous {
		t.Fatalf("status = %s, want ambiguous", o.Status)
	}
	if len(o.Candidates) < 2 {
		t.Fatalf("candidates = %v, want both tip programs", o.Candidates)
	}
	// Ties order by ID for determinism.
	if o.Candidates[0].ID != "hacettepe-tip" || o.Candidates[1].ID != "trakya-tip" {
		t.Errorf("tie order = %s, %s", o.Candidates[0].ID, o.Candidates[1].ID)
	}
}

func TestResolveScopedToInstitution(t *testing.T) {
	r := newTestResolver(t)

	o := r.Resolve(KindProgram, "tip", "trakya")
	if o.Status != StatusResolved {
		t.Fatalf("status = %s, candidates %v", o.Status, o.Candidates)
	}
	if o.Resolved.ID != "trakya-tip" {
		t.Errorf("resolved = %s, want trakya-tip", o.Resolved.ID)
	}
	if o.InstID != "trakya" {
		t.Errorf("owner = %s, want trakya", o.InstID)
	}
}

func TestRankDeterministic(t *testing.T) {
	r := newTestResolver(t)

	first := r.Rank(KindProgram, "bilgisayar", "")
	for i := 0; i < 5; i++ {
		if got := r.Rank(KindProgram, "bilgisayar", ""); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs:\n%v\n%v", i, got, first)
		}
	}
}

func TestRankCacheCountsHits(t *testing.T) {
	r := newTestResolver(t)

	r.Rank(KindInstitution, "bogazici", "")
	r.Rank(KindInstitution, "bogazici", "")
	hits, misses, _ := r.CacheStats()
	if hits < 1 {
		t.Errorf("hits = %d, want at least 1", hits)
	}
	if misses < 1 {
		t.Errorf("misses = %d, want at least 1", misses)
	}
}

func TestSwapInvalidatesRankings(t *testing.T) {
	r := newTestResolver(t)

	before := r.Resolve(KindInstitution, "tu", "")
	if before.Status != StatusResolved {
		t.Fatalf("precondition: %s", before.Status)
	}

	// The replacement snapshot drops the alias.
	insts := []models.Institution{
		{InstID: "trakya", Name: "Trakya Üniversitesi", City: "Edirne"},
	}
	r.Swap(BuildIndex("v2", insts, nil, normalizer.NewTextNormalizer()))

	after := r.Resolve(KindInstitution, "tu", "")
	if after.Status == StatusResolved && after.Resolved.Score == 1.0 {
		t.Errorf("stale cached ranking survived the swap: %+v", after)
	}
	if got := r.Snapshot().Version(); got != "v2" {
		t.Errorf("version = %s, want v2", got)
	}
}

func TestResolveOwnerFromSingleSnapshot(t *testing.T) {
	r := newTestResolver(t)

	// Replacement snapshot keeps the same program ID under a new owner.
	insts := []models.Institution{
		{InstID: "hacettepe", Name: "Hacettepe Üniversitesi", City: "Ankara"},
	}
	progs := []models.Program{
		{ProgramID: "trakya-tip", InstID: "hacettepe", Name: "Tıp"},
	}
	v2 := BuildIndex("v2", insts, progs, normalizer.NewTextNormalizer())

	stop := make(chan struct{})
	go func() {
		flip := false
		for {
			select {
			case <-stop:
				return
			default:
			}
			if flip {
				r.Swap(fixtureIndex("v1"))
			} else {
				r.Swap(v2)
			}
			flip = !flip
		}
	}()

	// An unscoped "tip" is ambiguous on v1, so it can only resolve against
	// v2, and the reported owner must come from that same snapshot. Reading
	// the owner from the other side of a swap would surface v1's "trakya".
	for i := 0; i < 500; i++ {
		o := r.Resolve(KindProgram, "tip", "")
		if o.Status != StatusResolved {
			continue
		}
		if o.Resolved.ID != "trakya-tip" || o.InstID != "hacettepe" {
			t.Fatalf("resolved %s with owner %q, want trakya-tip owned by hacettepe", o.Resolved.ID, o.InstID)
		}
	}
	close(stop)
}

func TestResolveBestPrefersResolved(t *testing.T) {
	r := newTestResolver(t)

	// "tip" alone is ambiguous; adding the institution-scoped alternative
	// must win out when both are offered.
	o := r.ResolveBest(KindProgram, []string{"tip", "elektrik elektronik muhendisligi"}, "")
	if o.Status != StatusResolved {
		t.Fatalf("status = %s", o.Status)
	}
	if o.Resolved.ID != "itu-elektrik" {
		t.Errorf("resolved = %s, want itu-elektrik", o.Resolved.ID)
	}
}

func TestResolveEmptyMention(t *testing.T) {
	r := newTestResolver(t)

	if got := r.Rank(KindInstitution, "   ", ""); got != nil {
		t.Errorf("Rank(blank) = %v, want nil", got)
	}
	if o := r.ResolveBest(KindInstitution, nil, ""); o.Status != StatusNotFound {
		t.Errorf("ResolveBest(nil) = %s, want not_found", o.Status)
	}
}
