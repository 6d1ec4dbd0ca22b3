package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tercih-asistani/internal/catalog"
	"github.com/tercih-asistani/internal/normalizer"
	"github.com/tercih-asistani/internal/resolver"
)

// CatalogService owns the resolver's snapshot lifecycle: it builds an index
// from the repository and swaps it in, at startup and on admin reload.
type CatalogService struct {
	repo       catalog.Repository
	resolver   *resolver.Resolver
	normalizer *normalizer.TextNormalizer
	logger     *zap.Logger
}

// CatalogStats is the admin stats payload.
type CatalogStats struct {
	Version      string `json:"version"`
	Institutions int    `json:"institutions"`
	Programs     int    `json:"programs"`
	CacheHits    int64  `json:"cache_hits"`
	CacheMisses  int64  `json:"cache_misses"`
	CacheSize    int    `json:"cache_size"`
}

// NewCatalogService creates the service.
func NewCatalogService(repo catalog.Repository, rs *resolver.Resolver, tn *normalizer.TextNormalizer, logger *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, resolver: rs, normalizer: tn, logger: logger}
}

// Reload rebuilds the search index from the repository and swaps it in.
// In-flight requests keep the old snapshot until the swap completes.
func (cas *CatalogService) Reload(ctx context.Context) (*CatalogStats, error) {
	version, err := cas.repo.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog version: %w", err)
	}
	insts, err := cas.repo.Institutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load institutions: %w", err)
	}
	progs, err := cas.repo.Programs(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load programs: %w", err)
	}

	idx := resolver.BuildIndex(version, insts, progs, cas.normalizer)
	cas.resolver.Swap(idx)

	cas.logger.Info("catalog reloaded",
		zap.String("version", version),
		zap.Int("institutions", len(insts)),
		zap.Int("programs", len(progs)))
	return cas.Stats(), nil
}

// Stats reports the current snapshot and cache counters.
func (cas *CatalogService) Stats() *CatalogStats {
	idx := cas.resolver.Snapshot()
	hits, misses, size := cas.resolver.CacheStats()
	return &CatalogStats{
		Version:      idx.Version(),
		Institutions: idx.InstitutionCount(),
		Programs:     idx.ProgramCount(),
		CacheHits:    hits,
		CacheMisses:  misses,
		CacheSize:    size,
	}
}
