package composer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tercih-asistani/app/models"
	"github.com/tercih-asistani/internal/calculator"
)

// Ambiguity describes one slot the resolver could not settle.
type Ambiguity struct {
	Slot       string
	Mention    string
	Candidates []models.Candidate
}

// Input feeds the composition state machine. The chat service fills in the
// parts the pipeline produced; the composer only arranges them.
type Input struct {
	Query              models.ResolvedQuery
	Ambiguous          *Ambiguity
	NotFoundSlot       string
	NotFoundMention    string
	Calculation        *models.CalculationResult
	CalcErr            error
	Record             *models.RecordSummary
	RecordErr          error
	Programs           []models.ProgramMatch
	AvailableExamTypes []models.ExamType
}

// Composer merges resolution and calculation outcomes into the single
// structured result returned to the chat layer. Every reachable
// (intent, resolution, calculation) combination maps to a response;
// an unmapped branch is a defect and surfaces as an InternalError.
type Composer struct {
	logger *zap.Logger
}

// NewComposer creates a composer.
func NewComposer(logger *zap.Logger) *Composer {
	return &Composer{logger: logger}
}

// Compose runs the state machine. A non-nil error is always an internal
// defect; all recoverable failures come back inside the response value.
func (cp *Composer) Compose(in Input) (*models.QueryResponse, error) {
	resp := &models.QueryResponse{
		Intent:     in.Query.Intent,
		Confidence: in.Query.Confidence,
		Query:      in.Query,
	}

	// Terminal resolution outcomes come first: nothing downstream can run
	// without settled slots.
	if in.Query.Intent == models.IntentClarificationNeeded {
		resp.Clarification = &models.Clarification{
			Slot:   "intent",
			Prompt: "Sorunuzu tam anlayamadım. Net hesabı mı, taban puan mı, kontenjan mı öğrenmek istiyorsunuz?",
		}
		resp.Suggestions = []string{
			"Örnek: \"Boğaziçi bilgisayar mühendisliği için kaç net gerekir?\"",
			"Örnek: \"ODTÜ elektrik elektronik taban puanı kaç?\"",
		}
		return resp, nil
	}

	if in.Ambiguous != nil {
		resp.Error = &models.QueryError{
			Kind:    models.ErrAmbiguousEntity,
			Details: fmt.Sprintf("%q birden fazla kayıtla eşleşti", in.Ambiguous.Mention),
		}
		resp.Clarification = &models.Clarification{
			Slot:       in.Ambiguous.Slot,
			Prompt:     clarifyPrompt(in.Ambiguous.Slot),
			Candidates: in.Ambiguous.Candidates,
		}
		resp.Suggestions = candidateNames(in.Ambiguous.Candidates)
		return resp, nil
	}

	if in.NotFoundSlot != "" {
		resp.Error = &models.QueryError{
			Kind:    models.ErrEntityNotFound,
			Details: fmt.Sprintf("%q katalogda bulunamadı", in.NotFoundMention),
		}
		resp.Suggestions = []string{
			"Kurum veya bölüm adını kısaltmadan yazmayı deneyin.",
			"Resmî adı kullanın, örneğin \"İstanbul Teknik Üniversitesi\".",
		}
		return resp, nil
	}

	if !in.Query.IsFullyResolved() {
		resp.Error = &models.QueryError{
			Kind:    models.ErrMissingRequiredSlot,
			Details: fmt.Sprintf("eksik alanlar: %v", in.Query.UnresolvedSlots),
		}
		resp.Suggestions = missingSlotPrompts(in.Query.UnresolvedSlots)
		return resp, nil
	}

	switch in.Query.Intent {
	case models.IntentNetCalculation:
		return cp.composeCalculation(resp, in)
	case models.IntentBaseScoreLookup, models.IntentQuotaInquiry:
		return cp.composeLookup(resp, in)
	case models.IntentProgramSearch:
		return cp.composeSearch(resp, in)
	}

	// Unreachable by construction; reaching it means a branch was missed.
	return nil, fmt.Errorf("composer: unmapped state for intent %q", in.Query.Intent)
}

func (cp *Composer) composeCalculation(resp *models.QueryResponse, in Input) (*models.QueryResponse, error) {
	if in.CalcErr != nil {
		kind, suggestions := cp.mapCalcError(in.CalcErr, in.AvailableExamTypes)
		if kind == models.ErrInternal {
			return nil, in.CalcErr
		}
		resp.Error = &models.QueryError{Kind: kind, Details: in.CalcErr.Error()}
		resp.Suggestions = suggestions
		return resp, nil
	}
	if in.Calculation == nil {
		return nil, errors.New("composer: net calculation produced neither result nor error")
	}

	resp.Calculation = in.Calculation
	if in.Calculation.ConfidenceLevel == models.ConfidenceLow {
		// Low confidence is non-fatal: the data ships with a warning.
		resp.Error = &models.QueryError{Kind: models.ErrLowConfidence}
		resp.Warning = "Bu hesap eski veya geniş aralıklı verilere dayanıyor; sonucu yaklaşık değer olarak değerlendirin."
	}
	return resp, nil
}

func (cp *Composer) composeLookup(resp *models.QueryResponse, in Input) (*models.QueryResponse, error) {
	if in.RecordErr != nil {
		resp.Error = &models.QueryError{
			Kind:    models.ErrInsufficientHistoricalData,
			Details: in.RecordErr.Error(),
		}
		resp.Suggestions = examTypeSuggestions(in.AvailableExamTypes)
		return resp, nil
	}
	if in.Record == nil {
		return nil, errors.New("composer: lookup produced neither record nor error")
	}
	resp.Record = in.Record
	return resp, nil
}

func (cp *Composer) composeSearch(resp *models.QueryResponse, in Input) (*models.QueryResponse, error) {
	resp.Programs = in.Programs
	if len(in.Programs) == 0 {
		resp.Error = &models.QueryError{
			Kind:    models.ErrEntityNotFound,
			Details: "arama kriterlerine uyan program bulunamadı",
		}
		resp.Suggestions = []string{
			"Bölüm adını genelleştirmeyi deneyin, örneğin \"mühendislik\".",
			"Şehir veya üniversite belirtmeden tekrar sorun.",
		}
	}
	return resp, nil
}

// mapCalcError translates calculator sentinels into error kinds with their
// deterministic suggestion lists.
func (cp *Composer) mapCalcError(err error, available []models.ExamType) (models.ErrorKind, []string) {
	switch {
	case errors.Is(err, calculator.ErrInsufficientHistoricalData):
		return models.ErrInsufficientHistoricalData, examTypeSuggestions(available)
	case errors.Is(err, calculator.ErrUnrealisticTarget):
		return models.ErrUnrealisticTarget, []string{
			"Hedef puan sınavda ulaşılabilecek en yüksek puanın üzerinde.",
			"Daha düşük bir hedef puanla tekrar deneyin.",
		}
	case errors.Is(err, calculator.ErrNoValidCombination):
		return models.ErrNoValidCombination, []string{
			"Bu puan türü için katsayı tablosu bulunamadı.",
			"TYT, SAY, EA, SÖZ veya DİL puan türlerinden birini belirtin.",
		}
	case errors.Is(err, calculator.ErrInvalidMargins):
		return models.ErrNoValidCombination, []string{
			"Senaryo marjları 0 ile 1 arasında ve en fazla 10 adet olmalı.",
		}
	default:
		return models.ErrInternal, nil
	}
}

func clarifyPrompt(slot string) string {
	switch slot {
	case models.SlotInstitution:
		return "Hangi üniversiteyi kastettiniz?"
	case models.SlotProgram:
		return "Hangi bölümü kastettiniz?"
	default:
		return "Hangisini kastettiniz?"
	}
}

func candidateNames(candidates []models.Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Name)
	}
	return out
}

func missingSlotPrompts(slots []string) []string {
	prompts := make([]string, 0, len(slots))
	for _, s := range slots {
		switch s {
		case models.SlotInstitution:
			prompts = append(prompts, "Hangi üniversite için soruyorsunuz?")
		case models.SlotProgram:
			prompts = append(prompts, "Hangi bölümü hedefliyorsunuz?")
		case models.SlotExamType:
			prompts = append(prompts, "Puan türünü belirtin: TYT, SAY, EA, SÖZ veya DİL.")
		case models.SlotTargetScore:
			prompts = append(prompts, "Hedef puanınızı belirtin.")
		}
	}
	if len(prompts) == 0 {
		prompts = append(prompts, "Sorunuza üniversite ve bölüm adı ekleyin.")
	}
	return prompts
}

func examTypeSuggestions(available []models.ExamType) []string {
	if len(available) == 0 {
		return []string{"Bu bölüm için geçmiş yerleştirme verisi henüz yüklenmedi."}
	}
	out := make([]string, 0, len(available))
	for _, et := range available {
		out = append(out, fmt.Sprintf("%s puan türü için veri mevcut, onunla sormayı deneyin.", et))
	}
	return out
}
