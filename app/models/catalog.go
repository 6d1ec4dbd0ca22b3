package models

import (
	"fmt"
	"time"
)

// ExamType is a YKS score type.
type ExamType string

const (
	ExamTypeTYT ExamType = "TYT"
	ExamTypeSAY ExamType = "SAY"
	ExamTypeEA  ExamType = "EA"
	ExamTypeSOZ ExamType = "SOZ"
	ExamTypeDIL ExamType = "DIL"
)

// IsValid reports whether et is one of the known score types.
func (et ExamType) IsValid() bool {
	switch et {
	case ExamTypeTYT, ExamTypeSAY, ExamTypeEA, ExamTypeSOZ, ExamTypeDIL:
		return true
	}
	return false
}

// Institution ownership.
const (
	OwnershipState      = "state"
	OwnershipFoundation = "foundation"
)

// Program instruction language.
const (
	LanguageTurkish = "turkish"
	LanguageEnglish = "english"
	LanguageMixed   = "mixed"
)

// Institution is one university in the catalog.
type Institution struct {
	InstID    string    `bson:"inst_id" json:"inst_id"`
	Name      string    `bson:"name" json:"name"`
	City      string    `bson:"city" json:"city"`
	Ownership string    `bson:"ownership" json:"ownership"`
	Aliases   []string  `bson:"aliases,omitempty" json:"aliases,omitempty"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Program is one degree program offered by an institution.
type Program struct {
	ProgramID string    `bson:"program_id" json:"program_id"`
	InstID    string    `bson:"inst_id" json:"inst_id"`
	Name      string    `bson:"name" json:"name"`
	Faculty   string    `bson:"faculty,omitempty" json:"faculty,omitempty"`
	Language  string    `bson:"language,omitempty" json:"language,omitempty"`
	Aliases   []string  `bson:"aliases,omitempty" json:"aliases,omitempty"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ScoreRecord is one year's placement outcome for a program under one score
// type. Ranks count down: a smaller rank is a better placement, so the
// ceiling rank is numerically below the base rank.
type ScoreRecord struct {
	ProgramID    string   `bson:"program_id" json:"program_id"`
	Year         int      `bson:"year" json:"year"`
	ExamType     ExamType `bson:"exam_type" json:"exam_type"`
	BaseScore    float64  `bson:"base_score" json:"base_score"`
	CeilingScore float64  `bson:"ceiling_score" json:"ceiling_score"`
	BaseRank     int      `bson:"base_rank,omitempty" json:"base_rank,omitempty"`
	CeilingRank  int      `bson:"ceiling_rank,omitempty" json:"ceiling_rank,omitempty"`
	Quota        int      `bson:"quota" json:"quota"`
}

// Validate checks the record's internal ordering.
func (sr ScoreRecord) Validate() error {
	if sr.ProgramID == "" {
		return fmt.Errorf("score record: empty program id")
	}
	if !sr.ExamType.IsValid() {
		return fmt.Errorf("score record %s/%d: invalid exam type %q", sr.ProgramID, sr.Year, sr.ExamType)
	}
	if sr.BaseScore > sr.CeilingScore {
		return fmt.Errorf("score record %s/%d: base score %.2f above ceiling %.2f", sr.ProgramID, sr.Year, sr.BaseScore, sr.CeilingScore)
	}
	if sr.BaseRank != 0 && sr.CeilingRank != 0 && sr.BaseRank < sr.CeilingRank {
		return fmt.Errorf("score record %s/%d: base rank %d better than ceiling rank %d", sr.ProgramID, sr.Year, sr.BaseRank, sr.CeilingRank)
	}
	if sr.Quota < 0 {
		return fmt.Errorf("score record %s/%d: negative quota", sr.ProgramID, sr.Year)
	}
	return nil
}

// Spread is the score distance between the weakest and strongest admitted
// candidate of that year.
func (sr ScoreRecord) Spread() float64 {
	return sr.CeilingScore - sr.BaseScore
}

// NetCoefficient maps one subject's correct-minus-penalty net count to score
// points for a given score type and exam year.
type NetCoefficient struct {
	ExamType     ExamType `bson:"exam_type" json:"exam_type"`
	Year         int      `bson:"year" json:"year"`
	Subject      string   `bson:"subject" json:"subject"`
	PointsPerNet float64  `bson:"points_per_net" json:"points_per_net"`
	MaxQuestions int      `bson:"max_questions" json:"max_questions"`
}

// Validate checks that the coefficient can contribute to a score.
func (nc NetCoefficient) Validate() error {
	if !nc.ExamType.IsValid() {
		return fmt.Errorf("coefficient %s/%d: invalid exam type %q", nc.Subject, nc.Year, nc.ExamType)
	}
	if nc.Subject == "" {
		return fmt.Errorf("coefficient %s/%d: empty subject", nc.ExamType, nc.Year)
	}
	if nc.PointsPerNet <= 0 {
		return fmt.Errorf("coefficient %s/%s/%d: points per net must be positive", nc.ExamType, nc.Subject, nc.Year)
	}
	if nc.MaxQuestions <= 0 {
		return fmt.Errorf("coefficient %s/%s/%d: max questions must be positive", nc.ExamType, nc.Subject, nc.Year)
	}
	return nil
}
