package services

import (
	"context"
	"fmt"
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

const maxSearchResults = 10

// ChatService runs the full pipeline for one message: normalize, classify,
// extract, resolve against the catalog snapshot, fill open slots from the
// session, dispatch to the intent handler and compose the answer.
type ChatService struct {
	normalizer *normalizer.TextNormalizer
	classifier *intent.Classifier
	extractor  *extract.EntityExtractor
	resolver   *resolver.Resolver
	repo       catalog.Repository
	calculator *calculator.Calculator
	composer   *composer.Composer
	sessions   SessionStore
	margin     float64
	logger     *zap.Logger
}

// NewChatService wires the pipeline.
func NewChatService(
	tn *normalizer.TextNormalizer,
	cls *intent.Classifier,
	ee *extract.EntityExtractor,
	rs *resolver.Resolver,
	repo catalog.Repository,
	calc *calculator.Calculator,
	cp *composer.Composer,
	sessions SessionStore,
	defaultMargin float64,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		normalizer: tn,
		classifier: cls,
		extractor:  ee,
		resolver:   rs,
		repo:       repo,
		calculator: calc,
		composer:   cp,
		sessions:   sessions,
		margin:     defaultMargin,
		logger:     logger,
	}
}

// HandleMessage processes one user message within a session.
func (cs *ChatService) HandleMessage(ctx context.Context, sessionID, message string) (*models.QueryResponse, error) {
	start := time.Now()

	norm := cs.normalizer.Normalize(message)
	cls := cs.classifier.Classify(norm.Text)
	mentions := cs.extractor.Extract(norm)

	state, err := cs.loadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	in := composer.Input{}
	query := models.ResolvedQuery{
		Intent:      cls.Intent,
		Confidence:  confidenceOf(cls),
		ExamType:    mentions.ExamType,
		TargetScore: mentions.TargetScore,
	}

	// A bare entity after a clarification or missing-slot answer repairs the
	// previous question instead of starting a new one.
	if query.Intent == models.IntentClarificationNeeded && repairsLastIntent(mentions, state) {
		query.Intent = state.LastIntent
	}

	instOutcome := cs.resolver.ResolveBest(resolver.KindInstitution, mentions.Institutions, "")
	switch instOutcome.Status {
	case resolver.StatusResolved:
		query.Institution = instOutcome.Resolved
		// An unhinted chunk feeds both slot categories; once it settles as
		// the institution it no longer counts as a program mention.
		mentions.Programs = dropShared(mentions.Programs, mentions.Institutions)
	case resolver.StatusAmbiguous:
		in.Ambiguous = &composer.Ambiguity{
			Slot:       models.SlotInstitution,
			Mention:    firstMention(mentions.Institutions),
			Candidates: instOutcome.Candidates,
		}
	}

	// Program resolution is scoped to the institution when one is settled,
	// either from this message or from the session.
	scope := ""
	if query.Institution != nil {
		scope = query.Institution.ID
	} else if len(mentions.Institutions) == 0 && state.Institution != nil {
		scope = state.Institution.ID
	}
	progOutcome := cs.resolver.ResolveBest(resolver.KindProgram, mentions.Programs, scope)
	// An unscoped tie between same-named programs at different universities
	// is often settled by the university the conversation is already about.
	if progOutcome.Status == resolver.StatusAmbiguous && scope == "" && state.Institution != nil {
		if retry := cs.resolver.ResolveBest(resolver.KindProgram, mentions.Programs, state.Institution.ID); retry.Status == resolver.StatusResolved {
			progOutcome = retry
		}
	}
	switch progOutcome.Status {
	case resolver.StatusResolved:
		query.Program = progOutcome.Resolved
		// A program resolved without an explicit institution pins one down.
		if query.Institution == nil && progOutcome.InstID != "" {
			if ref, err := cs.institutionRef(ctx, progOutcome.InstID); err == nil {
				query.Institution = ref
			}
		}
	case resolver.StatusAmbiguous:
		// A search across universities is allowed to stay ambiguous; the
		// ranked listing is the answer.
		if in.Ambiguous == nil && query.Intent != models.IntentProgramSearch {
			in.Ambiguous = &composer.Ambiguity{
				Slot:       models.SlotProgram,
				Mention:    firstMention(mentions.Programs),
				Candidates: progOutcome.Candidates,
			}
		}
	}

	cs.carryOver(&query, mentions, state)

	if in.Ambiguous == nil {
		cs.markUnresolved(&query, mentions, &in)
	}

	in.Query = query
	if in.Ambiguous == nil && in.NotFoundSlot == "" && query.IsFullyResolved() {
		if err := cs.dispatch(ctx, &query, mentions, &in); err != nil {
			return nil, err
		}
		in.Query = query
	}

	resp, err := cs.composer.Compose(in)
	if err != nil {
		return nil, err
	}

	cs.updateState(ctx, sessionID, state, message, resp)

	cs.logger.Info("message handled",
		zap.String("session_id", sessionID),
		zap.String("intent", string(resp.Intent)),
		zap.Float64("confidence", resp.Confidence),
		zap.Duration("took", time.Since(start)))
	return resp, nil
}

// loadState returns the stored session state, or an empty one.
func (cs *ChatService) loadState(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	if sessionID == "" {
		return models.NewConversationState(""), nil
	}
	state, ok, err := cs.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return models.NewConversationState(sessionID), nil
	}
	return state, nil
}

// carryOver fills still-open slots from the session. An explicit mention in
// the current message always wins, and switching to a new institution drops
// the remembered program rather than pairing it with the wrong university.
func (cs *ChatService) carryOver(q *models.ResolvedQuery, m extract.Mentions, state *models.ConversationState) {
	switchedInstitution := q.Institution != nil && state.Institution != nil &&
		q.Institution.ID != state.Institution.ID

	if q.Institution == nil && len(m.Institutions) == 0 && state.Institution != nil {
		q.Institution = state.Institution
		q.FromContext = append(q.FromContext, models.SlotInstitution)
	}
	if q.Program == nil && len(m.Programs) == 0 && state.Program != nil && !switchedInstitution {
		q.Program = state.Program
		q.FromContext = append(q.FromContext, models.SlotProgram)
	}
	if q.ExamType == "" && state.ExamType != "" && !switchedInstitution {
		q.ExamType = state.ExamType
		q.FromContext = append(q.FromContext, models.SlotExamType)
	}
}

// markUnresolved decides between "you never told me" and "I could not find
// it": a mention that resolved to nothing is a lookup failure, an absent
// mention with no context is a missing slot.
func (cs *ChatService) markUnresolved(q *models.ResolvedQuery, m extract.Mentions, in *composer.Input) {
	needsProgram := q.Intent == models.IntentNetCalculation ||
		q.Intent == models.IntentBaseScoreLookup ||
		q.Intent == models.IntentQuotaInquiry

	if needsProgram && q.Program == nil {
		if len(m.Programs) > 0 && len(m.Institutions) == 0 {
			in.NotFoundSlot = models.SlotProgram
			in.NotFoundMention = firstMention(m.Programs)
			return
		}
		if len(m.Institutions) > 0 && q.Institution == nil {
			in.NotFoundSlot = models.SlotInstitution
			in.NotFoundMention = firstMention(m.Institutions)
			return
		}
		q.UnresolvedSlots = append(q.UnresolvedSlots, models.SlotProgram)
		if q.Institution == nil {
			q.UnresolvedSlots = append(q.UnresolvedSlots, models.SlotInstitution)
		}
	}

	// A search can still rank sub-threshold program mentions, so only a
	// message with no usable handle at all is unanswerable.
	if q.Intent == models.IntentProgramSearch && q.Institution == nil && q.Program == nil && len(m.Programs) == 0 {
		if len(m.Institutions) > 0 {
			in.NotFoundSlot = models.SlotInstitution
			in.NotFoundMention = firstMention(m.Institutions)
			return
		}
		q.UnresolvedSlots = append(q.UnresolvedSlots, models.SlotInstitution)
	}
}

// dispatch runs the intent-specific data step once every slot is settled.
func (cs *ChatService) dispatch(ctx context.Context, q *models.ResolvedQuery, m extract.Mentions, in *composer.Input) error {
	switch q.Intent {
	case models.IntentNetCalculation:
		return cs.handleCalculation(ctx, q, in)
	case models.IntentBaseScoreLookup, models.IntentQuotaInquiry:
		return cs.handleLookup(ctx, q, in)
	case models.IntentProgramSearch:
		return cs.handleSearch(ctx, q, m, in)
	}
	return nil
}

func (cs *ChatService) handleCalculation(ctx context.Context, q *models.ResolvedQuery, in *composer.Input) error {
	examType, err := cs.settleExamType(ctx, q)
	if err != nil {
		return err
	}
	if examType == "" {
		q.UnresolvedSlots = append(q.UnresolvedSlots, models.SlotExamType)
		return nil
	}
	q.ExamType = examType

	result, calcErr := cs.calculator.Calculate(ctx, q.Program.ID, examType, q.TargetScore, cs.margin)
	in.Calculation = result
	in.CalcErr = calcErr
	if calcErr != nil {
		in.AvailableExamTypes, _ = cs.availableExamTypes(ctx, q.Program.ID)
		return nil
	}
	// Without a pinned goal the answer also shows the other configured
	// margins, so the user sees how much one extra net buys.
	if q.TargetScore == nil {
		result.Alternatives = cs.marginAlternatives(ctx, q.Program.ID, examType, result.SafetyMargin)
	}
	return nil
}

func (cs *ChatService) marginAlternatives(ctx context.Context, programID string, examType models.ExamType, usedMargin float64) []models.CalculationResult {
	var alts []models.CalculationResult
	for _, m := range cs.calculator.ScenarioSet() {
		if m == usedMargin {
			continue
		}
		r, err := cs.calculator.Calculate(ctx, programID, examType, nil, m)
		if err != nil {
			continue
		}
		alts = append(alts, *r)
	}
	return alts
}

func (cs *ChatService) handleLookup(ctx context.Context, q *models.ResolvedQuery, in *composer.Input) error {
	records, err := cs.repo.ScoreRecords(ctx, q.Program.ID, 0, q.ExamType)
	if err != nil {
		return fmt.Errorf("score records: %w", err)
	}
	if len(records) == 0 {
		in.RecordErr = fmt.Errorf("%q icin gecmis yerlestirme verisi yok", q.Program.Name)
		in.AvailableExamTypes, _ = cs.availableExamTypes(ctx, q.Program.ID)
		return nil
	}

	latest := records[0]
	for _, r := range records[1:] {
		if r.Year > latest.Year {
			latest = r
		}
	}
	q.ExamType = latest.ExamType

	instName := ""
	if q.Institution != nil {
		instName = q.Institution.Name
	}
	in.Record = &models.RecordSummary{
		Institution: instName,
		Program:     q.Program.Name,
		Year:        latest.Year,
		ExamType:    latest.ExamType,
		BaseScore:   latest.BaseScore,
		BaseRank:    latest.BaseRank,
		Quota:       latest.Quota,
	}
	return nil
}

// handleSearch answers two shapes of question: "which programs does this
// university have" lists the institution's catalog, and "which universities
// offer X" ranks a program mention across all institutions.
func (cs *ChatService) handleSearch(ctx context.Context, q *models.ResolvedQuery, m extract.Mentions, in *composer.Input) error {
	instNames, instCities, err := cs.institutionLookup(ctx)
	if err != nil {
		return err
	}
	programOwner, err := cs.programOwners(ctx)
	if err != nil {
		return err
	}

	instID := ""
	if q.Institution != nil {
		instID = q.Institution.ID
	}

	if len(m.Programs) > 0 {
		matches := make([]models.ProgramMatch, 0, maxSearchResults)
		seen := make(map[string]struct{})
		for _, mention := range m.Programs {
			for _, cand := range cs.resolver.Rank(resolver.KindProgram, mention, instID) {
				if _, dup := seen[cand.ID]; dup {
					continue
				}
				seen[cand.ID] = struct{}{}
				owner := programOwner[cand.ID]
				matches = append(matches, models.ProgramMatch{
					ProgramID:   cand.ID,
					Name:        cand.Name,
					Institution: instNames[owner],
					City:        instCities[owner],
					Score:       cand.Score,
				})
			}
		}
		if len(matches) > maxSearchResults {
			matches = matches[:maxSearchResults]
		}
		in.Programs = matches
		return nil
	}

	programs, err := cs.repo.Programs(ctx, instID)
	if err != nil {
		return fmt.Errorf("list programs: %w", err)
	}
	matches := make([]models.ProgramMatch, 0, len(programs))
	for _, p := range programs {
		matches = append(matches, models.ProgramMatch{
			ProgramID:   p.ProgramID,
			Name:        p.Name,
			Institution: instNames[p.InstID],
			City:        instCities[p.InstID],
		})
		if len(matches) >= maxSearchResults {
			break
		}
	}
	in.Programs = matches
	return nil
}

func (cs *ChatService) programOwners(ctx context.Context) (map[string]string, error) {
	programs, err := cs.repo.Programs(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	owners := make(map[string]string, len(programs))
	for _, p := range programs {
		owners[p.ProgramID] = p.InstID
	}
	return owners, nil
}

// settleExamType resolves the score type for a calculation. An explicit or
// remembered type wins; otherwise the program's records decide, but only
// when they agree on a single type.
func (cs *ChatService) settleExamType(ctx context.Context, q *models.ResolvedQuery) (models.ExamType, error) {
	if q.ExamType != "" {
		return q.ExamType, nil
	}
	types, err := cs.availableExamTypes(ctx, q.Program.ID)
	if err != nil {
		return "", err
	}
	if len(types) == 1 {
		return types[0], nil
	}
	return "", nil
}

func (cs *ChatService) availableExamTypes(ctx context.Context, programID string) ([]models.ExamType, error) {
	records, err := cs.repo.ScoreRecords(ctx, programID, 0, "")
	if err != nil {
		return nil, fmt.Errorf("score records: %w", err)
	}
	seen := make(map[models.ExamType]struct{})
	var out []models.ExamType
	for _, r := range records {
		if _, ok := seen[r.ExamType]; ok {
			continue
		}
		seen[r.ExamType] = struct{}{}
		out = append(out, r.ExamType)
	}
	return out, nil
}

func (cs *ChatService) institutionRef(ctx context.Context, instID string) (*models.EntityRef, error) {
	insts, err := cs.repo.Institutions(ctx)
	if err != nil {
		return nil, err
	}
	for _, inst := range insts {
		if inst.InstID == instID {
			return &models.EntityRef{ID: inst.InstID, Name: inst.Name}, nil
		}
	}
	return nil, fmt.Errorf("unknown institution %q", instID)
}

func (cs *ChatService) institutionLookup(ctx context.Context) (names, cities map[string]string, err error) {
	insts, err := cs.repo.Institutions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list institutions: %w", err)
	}
	names = make(map[string]string, len(insts))
	cities = make(map[string]string, len(insts))
	for _, inst := range insts {
		names[inst.InstID] = inst.Name
		cities[inst.InstID] = inst.City
	}
	return names, cities, nil
}

// updateState persists what this turn settled. Failed turns keep the old
// slots so the user can repair the query without repeating everything.
func (cs *ChatService) updateState(ctx context.Context, sessionID string, state *models.ConversationState, message string, resp *models.QueryResponse) {
	if sessionID == "" {
		return
	}

	if resp.Query.Institution != nil {
		state.Institution = resp.Query.Institution
	}
	if resp.Query.Program != nil {
		state.Program = resp.Query.Program
	}
	if resp.Query.ExamType != "" {
		state.ExamType = resp.Query.ExamType
	}
	// Keep the last actionable intent so a follow-up entity can repair it.
	if resp.Intent != models.IntentClarificationNeeded {
		state.LastIntent = resp.Intent
	}
	state.PushTurn(models.Turn{Message: message, Intent: resp.Intent, Timestamp: time.Now()})

	if err := cs.sessions.Set(ctx, state); err != nil {
		cs.logger.Warn("session save failed", zap.Error(err), zap.String("session_id", sessionID))
	}
}

// confidenceOf maps the classifier score into the 0..1 band reported to
// clients.
func confidenceOf(cls intent.Classification) float64 {
	c := cls.Score / 4.0
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

func firstMention(mentions []string) string {
	if len(mentions) == 0 {
		return ""
	}
	return mentions[0]
}

func repairsLastIntent(m extract.Mentions, state *models.ConversationState) bool {
	if state.LastIntent == "" || state.LastIntent == models.IntentClarificationNeeded {
		return false
	}
	return len(m.Institutions) > 0 || len(m.Programs) > 0 || m.ExamType != "" || m.TargetScore != nil
}

func dropShared(programs, institutions []string) []string {
	shared := make(map[string]struct{}, len(institutions))
	for _, s := range institutions {
		shared[s] = struct{}{}
	}
	out := programs[:0]
	for _, s := range programs {
		if _, ok := shared[s]; ok {
			continue
		}
		out = append(out, s)
	}
	return out
}
