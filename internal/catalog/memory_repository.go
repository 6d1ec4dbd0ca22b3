package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tercih-asistani/app/models"
)

// MemoryRepository serves the catalog from process memory. It backs tests,
// the standalone (Mongo-less) mode and the seed command's input stage. The
// data is validated once at construction and never mutated afterwards.
type MemoryRepository struct {
	institutions []models.Institution
	programs     []models.Program
	records      []models.ScoreRecord
	coefficients []models.NetCoefficient
	version      string
}

// CatalogFile is the JSON layout of a catalog fixture.
type CatalogFile struct {
	Institutions []models.Institution    `json:"institutions"`
	Programs     []models.Program        `json:"programs"`
	ScoreRecords []models.ScoreRecord    `json:"score_records"`
	Coefficients []models.NetCoefficient `json:"net_coefficients"`
}

// NewMemoryRepository validates the reference data and fingerprints it.
func NewMemoryRepository(insts []models.Institution, progs []models.Program, records []models.ScoreRecord, coeffs []models.NetCoefficient) (*MemoryRepository, error) {
	instIDs := make(map[string]struct{}, len(insts))
	for _, inst := range insts {
		if inst.InstID == "" {
			return nil, fmt.Errorf("institution %q: empty id", inst.Name)
		}
		if _, dup := instIDs[inst.InstID]; dup {
			return nil, fmt.Errorf("duplicate institution id %q", inst.InstID)
		}
		instIDs[inst.InstID] = struct{}{}
	}

	progIDs := make(map[string]struct{}, len(progs))
	for _, p := range progs {
		if _, ok := instIDs[p.InstID]; !ok {
			return nil, fmt.Errorf("program %q: unknown institution %q", p.ProgramID, p.InstID)
		}
		if _, dup := progIDs[p.ProgramID]; dup {
			return nil, fmt.Errorf("duplicate program id %q", p.ProgramID)
		}
		progIDs[p.ProgramID] = struct{}{}
	}

	recordKeys := make(map[string]struct{}, len(records))
	for i := range records {
		r := &records[i]
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, ok := progIDs[r.ProgramID]; !ok {
			return nil, fmt.Errorf("score record: unknown program %q", r.ProgramID)
		}
		key := fmt.Sprintf("%s|%d|%s", r.ProgramID, r.Year, r.ExamType)
		if _, dup := recordKeys[key]; dup {
			return nil, fmt.Errorf("duplicate score record for %s", key)
		}
		recordKeys[key] = struct{}{}
	}

	for i := range coeffs {
		if err := coeffs[i].Validate(); err != nil {
			return nil, err
		}
	}

	repo := &MemoryRepository{
		institutions: insts,
		programs:     progs,
		records:      records,
		coefficients: coeffs,
	}
	repo.version = repo.fingerprint()
	return repo, nil
}

// LoadFile reads a catalog fixture from a JSON file.
func LoadFile(path string) (*MemoryRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var cf CatalogFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	return NewMemoryRepository(cf.Institutions, cf.Programs, cf.ScoreRecords, cf.Coefficients)
}

func (mr *MemoryRepository) Institutions(ctx context.Context) ([]models.Institution, error) {
	return mr.institutions, nil
}

func (mr *MemoryRepository) Programs(ctx context.Context, instID string) ([]models.Program, error) {
	if instID == "" {
		return mr.programs, nil
	}
	var out []models.Program
	for _, p := range mr.programs {
		if p.InstID == instID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (mr *MemoryRepository) ScoreRecords(ctx context.Context, programID string, year int, examType models.ExamType) ([]models.ScoreRecord, error) {
	var out []models.ScoreRecord
	for _, r := range mr.records {
		if r.ProgramID != programID {
			continue
		}
		if year != 0 && r.Year != year {
			continue
		}
		if examType != "" && r.ExamType != examType {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (mr *MemoryRepository) Coefficients(ctx context.Context, examType models.ExamType, year int) ([]models.NetCoefficient, error) {
	var out []models.NetCoefficient
	for _, nc := range mr.coefficients {
		if nc.ExamType != examType {
			continue
		}
		if year != 0 && nc.Year != year {
			continue
		}
		out = append(out, nc)
	}
	return out, nil
}

func (mr *MemoryRepository) Version(ctx context.Context) (string, error) {
	return mr.version, nil
}

// fingerprint hashes the identifying keys of the snapshot so any data change
// produces a new version string.
func (mr *MemoryRepository) fingerprint() string {
	h := sha256.New()
	for _, inst := range mr.institutions {
		fmt.Fprintf(h, "i:%s:%s\n", inst.InstID, inst.Name)
	}
	for _, p := range mr.programs {
		fmt.Fprintf(h, "p:%s:%s:%s\n", p.ProgramID, p.InstID, p.Name)
	}
	for _, r := range mr.records {
		fmt.Fprintf(h, "r:%s:%d:%s:%.2f\n", r.ProgramID, r.Year, r.ExamType, r.BaseScore)
	}
	for _, nc := range mr.coefficients {
		fmt.Fprintf(h, "c:%s:%d:%s:%.3f\n", nc.ExamType, nc.Year, nc.Subject, nc.PointsPerNet)
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
