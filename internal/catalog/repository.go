package catalog

import (
	"context"

	"github.com/tercih-asistani/app/models"
)

// Repository is the read-only catalog collaborator boundary. The core loads
// reference data through it once per process lifetime and on explicit
// reloads; it never writes back.
type Repository interface {
	// Institutions returns every institution in the catalog.
	Institutions(ctx context.Context) ([]models.Institution, error)

	// Programs returns programs, optionally filtered to one institution.
	Programs(ctx context.Context, instID string) ([]models.Program, error)

	// ScoreRecords returns a program's records, optionally filtered by year
	// (0 = any) and exam type ("" = any).
	ScoreRecords(ctx context.Context, programID string, year int, examType models.ExamType) ([]models.ScoreRecord, error)

	// Coefficients returns the net coefficient table for an exam type,
	// optionally filtered by year (0 = any).
	Coefficients(ctx context.Context, examType models.ExamType, year int) ([]models.NetCoefficient, error)

	// Version is a fingerprint of the loaded snapshot; it changes whenever
	// the underlying data does and keys the resolver cache.
	Version(ctx context.Context) (string, error)
}
