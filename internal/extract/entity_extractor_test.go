package extract

import (
	"testing"

	"github.com/tercih-asistani/app/models"
	"github.com/tercih-asistani/internal/normalizer"
)

func extractText(t *testing.T, text string) Mentions {
	t.Helper()
	tn := normalizer.NewTextNormalizer()
	ee := NewEntityExtractor()
	return ee.Extract(tn.Normalize(text))
}

func TestExtractExamType(t *testing.T) {
	cases := []struct {
		name string
		text string
		want models.ExamType
	}{
		{"explicit say", "say puan türüyle bilgisayar", models.ExamTypeSAY},
		{"sayisal variant", "sayısal ile tıp okumak istiyorum", models.ExamTypeSAY},
		{"esit agirlik bigram", "eşit ağırlık ile psikoloji", models.ExamTypeEA},
		{"tyt", "tyt için kaç net", models.ExamTypeTYT},
		{"dil", "dil puanıyla hangi bölümler", models.ExamTypeDIL},
		{"absent", "bilgisayar mühendisliği taban puanı", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractText(t, tc.text)
			if got.ExamType != tc.want {
				t.Errorf("exam type = %q, want %q", got.ExamType, tc.want)
			}
		})
	}
}

func TestExtractTargetScore(t *testing.T) {
	t.Run("plain score", func(t *testing.T) {
		got := extractText(t, "hedefim 450,5 puan")
		if got.TargetScore == nil || *got.TargetScore != 450.5 {
			t.Errorf("target score = %v, want 450.5", got.TargetScore)
		}
	})

	t.Run("net count is not a score", func(t *testing.T) {
		got := extractText(t, "80 net yaptım yeter mi")
		if got.TargetScore != nil {
			t.Errorf("target score = %v, want nil", *got.TargetScore)
		}
	})

	t.Run("question count is not a score", func(t *testing.T) {
		got := extractText(t, "40 soru çözdüm")
		if got.TargetScore != nil {
			t.Errorf("target score = %v, want nil", *got.TargetScore)
		}
	})

	t.Run("implausible value skipped", func(t *testing.T) {
		got := extractText(t, "hedefim 700 puan")
		if got.TargetScore != nil {
			t.Errorf("target score = %v, want nil for out-of-band value", *got.TargetScore)
		}
	})
}

func TestExtractInstitutionAndProgram(t *testing.T) {
	t.Run("hint splits chunk", func(t *testing.T) {
		got := extractText(t, "boğaziçi üniversitesi bilgisayar mühendisliği için kaç net gerekir")
		if !contains(got.Institutions, "bogazici universitesi") {
			t.Errorf("institutions = %v, want to include %q", got.Institutions, "bogazici universitesi")
		}
		if !contains(got.Programs, "bilgisayar muhendisligi") {
			t.Errorf("programs = %v, want to include %q", got.Programs, "bilgisayar muhendisligi")
		}
	})

	t.Run("acronym without hints goes to both", func(t *testing.T) {
		got := extractText(t, "odtü taban puanı kaç")
		if !contains(got.Institutions, "odtu") {
			t.Errorf("institutions = %v, want to include %q", got.Institutions, "odtu")
		}
		if !contains(got.Programs, "odtu") {
			t.Errorf("programs = %v, want to include %q", got.Programs, "odtu")
		}
	})

	t.Run("program hint pulls modifiers", func(t *testing.T) {
		got := extractText(t, "itü elektrik elektronik mühendisliği kontenjanı")
		if !contains(got.Programs, "elektrik elektronik muhendisligi") {
			t.Errorf("programs = %v, want to include %q", got.Programs, "elektrik elektronik muhendisligi")
		}
	})

	t.Run("stopwords break chunks", func(t *testing.T) {
		got := extractText(t, "tıp için kaç net lazım")
		if !contains(got.Programs, "tip") {
			t.Errorf("programs = %v, want to include %q", got.Programs, "tip")
		}
		if contains(got.Programs, "tip icin") {
			t.Errorf("programs = %v, stopword leaked into a mention", got.Programs)
		}
	})

	t.Run("empty message", func(t *testing.T) {
		got := extractText(t, "")
		if len(got.Institutions) != 0 || len(got.Programs) != 0 {
			t.Errorf("expected no mentions, got %v / %v", got.Institutions, got.Programs)
		}
	})
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
