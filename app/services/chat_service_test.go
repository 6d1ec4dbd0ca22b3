package services

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tercih-asistani/app/models"
	"github.com/tercih-asistani/internal/calculator"
	"github.com/tercih-asistani/internal/catalog"
	"github.com/tercih-asistani/internal/composer"
	"github.com/tercih-asistani/internal/extract"
	"github.com/tercih-asistani/internal/intent"
	"github.com/tercih-asistani/internal/normalizer"
	"github.com/tercih-asistani/internal/resolver"
)

func chatFixtureRepo(t *testing.T) catalog.Repository {
	t.Helper()
	now := time.Now()
	insts := []models.Institution{
		{InstID: "bogazici", Name: "Boğaziçi Üniversitesi", City: "İstanbul", Aliases: []string{"boün"}, UpdatedAt: now},
		{InstID: "odtu", Name: "Orta Doğu Teknik Üniversitesi", City: "Ankara", Aliases: []string{"odtü"}, UpdatedAt: now},
		{InstID: "trakya", Name: "Trakya Üniversitesi", City: "Edirne", Aliases: []string{"tü"}, UpdatedAt: now},
		{InstID: "hacettepe", Name: "Hacettepe Üniversitesi", City: "Ankara", Aliases: []string{"hü"}, UpdatedAt: now},
	}
	progs := []models.Program{
		{ProgramID: "bogazici-bilgisayar", InstID: "bogazici", Name: "Bilgisayar Mühendisliği"},
		{ProgramID: "odtu-bilgisayar", InstID: "odtu", Name: "Bilgisayar Mühendisliği"},
		{ProgramID: "trakya-tip", InstID: "trakya", Name: "Tıp"},
		{ProgramID: "hacettepe-tip", InstID: "hacettepe", Name: "Tıp"},
	}
	records := []models.ScoreRecord{
		{ProgramID: "bogazici-bilgisayar", Year: 2025, ExamType: models.ExamTypeSAY, BaseScore: 420, CeilingScore: 450, BaseRank: 520, CeilingRank: 12, Quota: 120},
		{ProgramID: "bogazici-bilgisayar", Year: 2024, ExamType: models.ExamTypeSAY, BaseScore: 410, CeilingScore: 445, BaseRank: 610, CeilingRank: 15, Quota: 115},
		{ProgramID: "odtu-bilgisayar", Year: 2025, ExamType: models.ExamTypeSAY, BaseScore: 400, CeilingScore: 430, BaseRank: 900, CeilingRank: 40, Quota: 140},
		{ProgramID: "trakya-tip", Year: 2025, ExamType: models.ExamTypeSAY, BaseScore: 380, CeilingScore: 410, BaseRank: 9800, CeilingRank: 2900, Quota: 220},
		{ProgramID: "hacettepe-tip", Year: 2025, ExamType: models.ExamTypeSAY, BaseScore: 430, CeilingScore: 460, BaseRank: 1500, CeilingRank: 60, Quota: 260},
	}
	coeffs := []models.NetCoefficient{
		{ExamType: models.ExamTypeSAY, Year: 2025, Subject: "Matematik", PointsPerNet: 4.0, MaxQuestions: 50},
		{ExamType: models.ExamTypeSAY, Year: 2025, Subject: "Fen", PointsPerNet: 4.0, MaxQuestions: 50},
	}
	repo, err := catalog.NewMemoryRepository(insts, progs, records, coeffs)
	if err != nil {
		t.Fatalf("fixture repo: %v", err)
	}
	return repo
}

func newTestChatService(t *testing.T) *ChatService {
	t.Helper()
	logger := zap.NewNop()
	repo := chatFixtureRepo(t)

	tn := normalizer.NewTextNormalizer()
	rs, err := resolver.NewResolver(resolver.DefaultConfig(), logger)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if _, err := NewCatalogService(repo, rs, tn, logger).Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	calc := calculator.NewCalculator(repo, calculator.DefaultConfig(), logger)
	sessions := NewMemorySessionStore(30*time.Minute, logger)

	return NewChatService(
		tn, intent.NewClassifier(2.0), extract.NewEntityExtractor(), rs, repo,
		calc, composer.NewComposer(logger), sessions, 0.05, logger)
}

func TestHandleMessageNetCalculation(t *testing.T) {
	cs := newTestChatService(t)

	resp, err := cs.HandleMessage(context.Background(), "s1",
		"Boğaziçi Üniversitesi bilgisayar mühendisliği için kaç net gerekir?")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if resp.Intent != models.IntentNetCalculation {
		t.Fatalf("intent = %s", resp.Intent)
	}
	if resp.Query.Institution == nil || resp.Query.Institution.ID != "bogazici" {
		t.Errorf("institution = %+v", resp.Query.Institution)
	}
	if resp.Query.Program == nil || resp.Query.Program.ID != "bogazici-bilgisayar" {
		t.Errorf("program = %+v", resp.Query.Program)
	}
	// The only exam type on record is inferred.
	if resp.Query.ExamType != models.ExamTypeSAY {
		t.Errorf("exam type = %s, want SAY", resp.Query.ExamType)
	}
	if resp.Calculation == nil {
		t.Fatalf("no calculation; error = %+v", resp.Error)
	}
	if resp.Calculation.BasedOnYear != 2025 {
		t.Errorf("based on year = %d, want 2025", resp.Calculation.BasedOnYear)
	}
	if resp.Calculation.TargetScore != 441.0 {
		t.Errorf("target = %v, want 441.0", resp.Calculation.TargetScore)
	}
}

func TestHandleMessageContextCarryOver(t *testing.T) {
	cs := newTestChatService(t)
	ctx := context.Background()

	if _, err := cs.HandleMessage(ctx, "s2",
		"Boğaziçi Üniversitesi bilgisayar mühendisliği için kaç net gerekir?"); err != nil {
		t.Fatalf("first message: %v", err)
	}

	resp, err := cs.HandleMessage(ctx, "s2", "peki kontenjanı kaç?")
	if err != nil {
		t.Fatalf("follow-up: %v", err)
	}

	if resp.Intent != models.IntentQuotaInquiry {
		t.Fatalf("intent = %s", resp.Intent)
	}
	if resp.Query.Program == nil || resp.Query.Program.ID != "bogazici-bilgisayar" {
		t.Fatalf("program not carried over: %+v (error %+v)", resp.Query.Program, resp.Error)
	}
	if !containsString(resp.Query.FromContext, models.SlotProgram) {
		t.Errorf("from_context = %v, want program marked", resp.Query.FromContext)
	}
	if resp.Record == nil || resp.Record.Quota != 120 {
		t.Errorf("record = %+v, want quota 120", resp.Record)
	}
}

func TestHandleMessageTopicSwitchDropsProgram(t *testing.T) {
	cs := newTestChatService(t)
	ctx := context.Background()

	if _, err := cs.HandleMessage(ctx, "s3",
		"Boğaziçi Üniversitesi bilgisayar mühendisliği için kaç net gerekir?"); err != nil {
		t.Fatalf("first message: %v", err)
	}

	// Switching universities must not silently reuse the remembered program.
	resp, err := cs.HandleMessage(ctx, "s3", "odtü taban puanı kaç")
	if err != nil {
		t.Fatalf("switch message: %v", err)
	}
	if resp.Query.Institution == nil || resp.Query.Institution.ID != "odtu" {
		t.Fatalf("institution = %+v", resp.Query.Institution)
	}
	if resp.Error == nil || resp.Error.Kind != models.ErrMissingRequiredSlot {
		t.Fatalf("error = %+v, want missing_required_slot", resp.Error)
	}

	// Supplying the program repairs the previous question.
	resp, err = cs.HandleMessage(ctx, "s3", "bilgisayar mühendisliği")
	if err != nil {
		t.Fatalf("repair message: %v", err)
	}
	if resp.Intent != models.IntentBaseScoreLookup {
		t.Fatalf("intent = %s, want inherited base_score_lookup", resp.Intent)
	}
	if resp.Query.Program == nil || resp.Query.Program.ID != "odtu-bilgisayar" {
		t.Fatalf("program = %+v (error %+v)", resp.Query.Program, resp.Error)
	}
	if resp.Record == nil || resp.Record.BaseScore != 400 {
		t.Errorf("record = %+v, want base score 400", resp.Record)
	}
}

func TestHandleMessageAmbiguousProgram(t *testing.T) {
	cs := newTestChatService(t)
	ctx := context.Background()

	resp, err := cs.HandleMessage(ctx, "s4", "tıp taban puanı kaç")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if resp.Error == nil || resp.Error.Kind != models.ErrAmbiguousEntity {
		t.Fatalf("error = %+v, want ambiguous_entity", resp.Error)
	}
	if resp.Clarification == nil || len(resp.Clarification.Candidates) < 2 {
		t.Fatalf("clarification = %+v", resp.Clarification)
	}

	// Naming the university settles the ambiguity.
	resp, err = cs.HandleMessage(ctx, "s4", "trakya üniversitesi tıp taban puanı")
	if err != nil {
		t.Fatalf("follow-up: %v", err)
	}
	if resp.Query.Program == nil || resp.Query.Program.ID != "trakya-tip" {
		t.Fatalf("program = %+v (error %+v)", resp.Query.Program, resp.Error)
	}
	if resp.Record == nil || resp.Record.BaseScore != 380 {
		t.Errorf("record = %+v, want base score 380", resp.Record)
	}
}

func TestHandleMessageUnrealisticTarget(t *testing.T) {
	cs := newTestChatService(t)

	resp, err := cs.HandleMessage(context.Background(), "s5",
		"trakya tıp için hedefim 560 puan kaç net gerekir")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if resp.Error == nil || resp.Error.Kind != models.ErrUnrealisticTarget {
		t.Fatalf("error = %+v, want unrealistic_target", resp.Error)
	}
	if len(resp.Suggestions) == 0 {
		t.Error("unrealistic target must carry suggestions")
	}
}

func TestHandleMessageEntityNotFound(t *testing.T) {
	cs := newTestChatService(t)

	resp, err := cs.HandleMessage(context.Background(), "s6", "hogwarts taban puanı kaç")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if resp.Error == nil || resp.Error.Kind != models.ErrEntityNotFound {
		t.Fatalf("error = %+v, want entity_not_found", resp.Error)
	}
}

func TestHandleMessageClarificationNeeded(t *testing.T) {
	cs := newTestChatService(t)

	resp, err := cs.HandleMessage(context.Background(), "s7", "merhaba nasılsın")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if resp.Intent != models.IntentClarificationNeeded {
		t.Fatalf("intent = %s", resp.Intent)
	}
	if resp.Clarification == nil || resp.Clarification.Prompt == "" {
		t.Errorf("clarification = %+v", resp.Clarification)
	}
}

func TestHandleMessageProgramSearch(t *testing.T) {
	cs := newTestChatService(t)

	resp, err := cs.HandleMessage(context.Background(), "s8",
		"bilgisayar mühendisliği hangi üniversitelerde var")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if resp.Intent != models.IntentProgramSearch {
		t.Fatalf("intent = %s", resp.Intent)
	}
	if len(resp.Programs) < 2 {
		t.Fatalf("programs = %+v, want both bilgisayar programs", resp.Programs)
	}
	for _, p := range resp.Programs {
		if p.Institution == "" {
			t.Errorf("match %s missing institution name", p.ProgramID)
		}
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
