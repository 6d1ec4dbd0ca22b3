package calculator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/tercih-asistani/app/models"
	"github.com/tercih-asistani/internal/catalog"
)

// Sentinel failures; the response composer maps them to structured error
// kinds at the boundary.
var (
	ErrInsufficientHistoricalData = errors.New("no score record for the requested exam type")
	ErrUnrealisticTarget          = errors.New("target score exceeds the maximum achievable score")
	ErrNoValidCombination         = errors.New("no net coefficients available for the exam type")
	ErrInvalidMargins             = errors.New("scenario margins must be 1 to 10 values in (0,1]")
)

// Config tunes the numeric engine. The raw placement points every candidate
// receives regardless of nets (OBP floor) and the spread bands that grade
// confidence are data properties, so they live in configuration.
type Config struct {
	DefaultMargin  float64   `yaml:"default_margin" json:"default_margin"`
	BasePoints     float64   `yaml:"base_points" json:"base_points"`
	NarrowSpread   float64   `yaml:"narrow_spread" json:"narrow_spread"`
	ModerateSpread float64   `yaml:"moderate_spread" json:"moderate_spread"`
	ScenarioSet    []float64 `yaml:"scenario_set" json:"scenario_set"`
}

// DefaultConfig mirrors the published YKS scoring floor.
func DefaultConfig() Config {
	return Config{
		DefaultMargin:  0.05,
		BasePoints:     100,
		NarrowSpread:   20,
		ModerateSpread: 40,
		ScenarioSet:    []float64{0.03, 0.05, 0.10},
	}
}

// MaxScenarioMargins caps a scenario request.
const MaxScenarioMargins = 10

// Calculator converts a resolved program plus historical score records into
// required per-subject net bands.
type Calculator struct {
	repo   catalog.Repository
	cfg    Config
	logger *zap.Logger
}

// NewCalculator wires the numeric engine to the catalog collaborator.
func NewCalculator(repo catalog.Repository, cfg Config, logger *zap.Logger) *Calculator {
	if cfg.DefaultMargin <= 0 {
		cfg.DefaultMargin = DefaultConfig().DefaultMargin
	}
	if cfg.BasePoints <= 0 {
		cfg.BasePoints = DefaultConfig().BasePoints
	}
	if cfg.NarrowSpread <= 0 {
		cfg.NarrowSpread = DefaultConfig().NarrowSpread
	}
	if cfg.ModerateSpread <= 0 {
		cfg.ModerateSpread = DefaultConfig().ModerateSpread
	}
	return &Calculator{repo: repo, cfg: cfg, logger: logger}
}

// DefaultMargin exposes the configured safety margin.
func (c *Calculator) DefaultMargin() float64 { return c.cfg.DefaultMargin }

// ScenarioSet is the margin list used when the caller pins none.
func (c *Calculator) ScenarioSet() []float64 { return c.cfg.ScenarioSet }

// Calculate computes the required net band for a program and exam type.
// targetScore, when non-nil, is the user's own goal; otherwise the safe
// target is derived from the most recent base score plus the margin.
func (c *Calculator) Calculate(ctx context.Context, programID string, examType models.ExamType, targetScore *float64, margin float64) (*models.CalculationResult, error) {
	if margin <= 0 {
		margin = c.cfg.DefaultMargin
	}

	record, recordCount, err := c.latestRecord(ctx, programID, examType)
	if err != nil {
		return nil, err
	}

	coeffs, err := c.coefficientsFor(ctx, examType, record.Year)
	if err != nil {
		return nil, err
	}

	latestYear, err := c.latestDataYear(ctx, examType, record.Year)
	if err != nil {
		return nil, err
	}

	maxAchievable := c.cfg.BasePoints
	totalWeight := 0.0
	for _, nc := range coeffs {
		w := nc.PointsPerNet * float64(nc.MaxQuestions)
		maxAchievable += w
		totalWeight += w
	}
	if totalWeight <= 0 {
		return nil, ErrNoValidCombination
	}

	safeTarget := record.BaseScore * (1 + margin)
	if targetScore != nil {
		safeTarget = *targetScore
	}
	if safeTarget > maxAchievable {
		return nil, fmt.Errorf("%w: target %.1f, maximum %.1f", ErrUnrealisticTarget, safeTarget, maxAchievable)
	}

	// The band's lower bound answers the safe target; the upper bound
	// answers the strongest admitted score, so the width mirrors the
	// base/ceiling spread of the record.
	upperTarget := math.Max(safeTarget, math.Min(record.CeilingScore, maxAchievable))

	nets := make(map[string]models.NetRange, len(coeffs))
	for _, nc := range coeffs {
		share := nc.PointsPerNet * float64(nc.MaxQuestions) / totalWeight
		nets[nc.Subject] = models.NetRange{
			Min: c.netFor(safeTarget, share, nc),
			Max: c.netFor(upperTarget, share, nc),
		}
	}

	result := &models.CalculationResult{
		TargetScore:     round1(safeTarget),
		SafetyMargin:    margin,
		RequiredNets:    nets,
		BasedOnYear:     record.Year,
		Competitiveness: competitiveness(record.BaseScore),
		ConfidenceLevel: c.confidence(record, recordCount, latestYear),
	}

	c.logger.Debug("net calculation completed",
		zap.String("program_id", programID),
		zap.String("exam_type", string(examType)),
		zap.Int("based_on_year", record.Year),
		zap.Float64("safe_target", result.TargetScore),
		zap.String("confidence", result.ConfidenceLevel))

	return result, nil
}

// CalculateScenarios repeats the computation per supplied margin and returns
// one result per margin in the order given.
func (c *Calculator) CalculateScenarios(ctx context.Context, programID string, examType models.ExamType, targetScore *float64, margins []float64) ([]models.CalculationResult, error) {
	if len(margins) == 0 || len(margins) > MaxScenarioMargins {
		return nil, ErrInvalidMargins
	}
	for _, m := range margins {
		if m <= 0 || m > 1 {
			return nil, fmt.Errorf("%w: got %.3f", ErrInvalidMargins, m)
		}
	}

	results := make([]models.CalculationResult, 0, len(margins))
	for _, m := range margins {
		r, err := c.Calculate(ctx, programID, examType, targetScore, m)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, nil
}

// netFor converts a target score into a required net for one subject: the
// subject's share of the points above the placement floor, divided by the
// points one correct answer earns, clamped to the question count.
func (c *Calculator) netFor(target, share float64, nc models.NetCoefficient) float64 {
	contribution := (target - c.cfg.BasePoints) * share
	net := contribution / nc.PointsPerNet
	if net < 0 {
		net = 0
	}
	if max := float64(nc.MaxQuestions); net > max {
		net = max
	}
	return round1(net)
}

// latestRecord picks the most recent record for the exam type.
func (c *Calculator) latestRecord(ctx context.Context, programID string, examType models.ExamType) (models.ScoreRecord, int, error) {
	records, err := c.repo.ScoreRecords(ctx, programID, 0, examType)
	if err != nil {
		return models.ScoreRecord{}, 0, fmt.Errorf("score records: %w", err)
	}
	if len(records) == 0 {
		return models.ScoreRecord{}, 0, ErrInsufficientHistoricalData
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Year > records[j].Year })
	return records[0], len(records), nil
}

// latestDataYear is the newest year present in the exam type's coefficient
// table, used as the reference point for data-age grading.
func (c *Calculator) latestDataYear(ctx context.Context, examType models.ExamType, fallback int) (int, error) {
	all, err := c.repo.Coefficients(ctx, examType, 0)
	if err != nil {
		return 0, fmt.Errorf("coefficients: %w", err)
	}
	latest := fallback
	for _, nc := range all {
		if nc.Year > latest {
			latest = nc.Year
		}
	}
	return latest, nil
}

// coefficientsFor fetches the table for the record's year, falling back to
// the nearest available year when the exact one is missing.
func (c *Calculator) coefficientsFor(ctx context.Context, examType models.ExamType, year int) ([]models.NetCoefficient, error) {
	coeffs, err := c.repo.Coefficients(ctx, examType, year)
	if err != nil {
		return nil, fmt.Errorf("coefficients: %w", err)
	}
	if len(coeffs) > 0 {
		return coeffs, nil
	}

	all, err := c.repo.Coefficients(ctx, examType, 0)
	if err != nil {
		return nil, fmt.Errorf("coefficients: %w", err)
	}
	if len(all) == 0 {
		return nil, ErrNoValidCombination
	}

	bestYear := 0
	for _, nc := range all {
		if nc.Year <= year && nc.Year > bestYear {
			bestYear = nc.Year
		}
	}
	if bestYear == 0 {
		for _, nc := range all {
			if nc.Year > bestYear {
				bestYear = nc.Year
			}
		}
	}
	filtered := all[:0]
	for _, nc := range all {
		if nc.Year == bestYear {
			filtered = append(filtered, nc)
		}
	}
	return filtered, nil
}

// confidence grades the answer by data age, spread and record depth.
func (c *Calculator) confidence(record models.ScoreRecord, recordCount, latestYear int) string {
	age := latestYear - record.Year
	spread := record.Spread()
	switch {
	case age >= 2 || spread > c.cfg.ModerateSpread || recordCount == 1:
		return models.ConfidenceLow
	case age == 1 || spread > c.cfg.NarrowSpread:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceHigh
	}
}

// competitiveness bands drive confidence wording only, never a hard gate.
func competitiveness(baseScore float64) string {
	switch {
	case baseScore < 300:
		return models.CompetitivenessLow
	case baseScore < 400:
		return models.CompetitivenessMedium
	case baseScore < 500:
		return models.CompetitivenessHigh
	default:
		return models.CompetitivenessVeryHigh
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
