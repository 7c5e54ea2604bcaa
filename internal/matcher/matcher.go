package matcher

import (
	"context"
	"fmt"
	"time"

	"journal-ledger-matcher/internal/models"
	"journal-ledger-matcher/internal/normalizer"
	"journal-ledger-matcher/internal/oracle"
	"journal-ledger-matcher/internal/workflow"
	"journal-ledger-matcher/pkg/errors"
	"journal-ledger-matcher/pkg/logger"
)

// MatchRequest carries one journal entry and the ledger window to match it
// against. EntryTime anchors recency scoring; when zero, the current time is
// used.
type MatchRequest struct {
	Entry        *models.ParsedEntry
	Transcript   string
	EntryTime    time.Time
	Transactions []*models.LedgerTransaction
}

// Matcher runs the full pipeline for a single entry: candidate filtering,
// multi-factor scoring, ambiguity arbitration, and result construction.
type Matcher struct {
	config  *MatchConfig
	norm    *normalizer.Normalizer
	scorer  *Scorer
	arbiter *arbiter
	logger  logger.Logger
}

// New creates a matcher. The oracle client is optional; without one,
// ambiguous rankings resolve deterministically. A nil config uses
// DefaultMatchConfig.
func New(config *MatchConfig, norm *normalizer.Normalizer, client oracle.Client, log logger.Logger) (*Matcher, error) {
	if config == nil {
		config = DefaultMatchConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "match_config", config.String(), err)
	}

	if norm == nil {
		norm = normalizer.New(nil)
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Matcher{
		config:  config,
		norm:    norm,
		scorer:  NewScorer(config, norm),
		arbiter: newArbiter(config, client, log),
		logger:  log.WithComponent("matcher"),
	}, nil
}

// Match resolves the entry to at most one ledger transaction. It always
// returns a usable result for a valid request: oracle failures and empty
// rankings surface as result states, not errors.
func (m *Matcher) Match(ctx context.Context, req MatchRequest) (*models.MatchResult, error) {
	if req.Entry == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "entry", nil, nil)
	}

	entryTime := req.EntryTime
	if entryTime.IsZero() {
		entryTime = time.Now()
	}

	working := FilterCandidates(req.Transactions, m.config.MaxCandidates)

	log := m.logger.WithFields(logger.Fields{
		"merchant":     req.Entry.Merchant,
		"transactions": len(req.Transactions),
		"working_set":  len(working),
	})
	log.Debug("Starting match")

	ranking := m.scorer.Score(req.Entry, working, entryTime)
	if !ranking.HasCandidates() {
		log.Info("No viable candidates")
		return workflow.NoMatch("no transaction in the window was a plausible match"), nil
	}

	result := m.deterministicResult(req.Entry, ranking)

	if m.arbiter.shouldEscalate(ranking) {
		if verdict := m.arbiter.consult(ctx, req.Entry, req.Transcript, entryTime, ranking); verdict != nil {
			result = m.resultFromVerdict(verdict, ranking)
		}
	}

	log.WithFields(logger.Fields{
		"matched":    result.Matched,
		"confidence": result.Confidence,
		"outcome":    workflow.OutcomeFor(result).String(),
	}).Info("Match complete")

	return result, nil
}

// deterministicResult builds the result for the ranking's best candidate.
// The link is trusted without confirmation only when the normalized merchant
// names agree and the stated amount is within the auto-accept tolerance.
func (m *Matcher) deterministicResult(entry *models.ParsedEntry, ranking *Ranking) *models.MatchResult {
	best := ranking.Best
	confidence := roundConfidence(best.TotalScore)
	reason := fmt.Sprintf("best of %d candidates at score %.1f (margin %.1f)",
		len(ranking.Candidates), best.TotalScore, ranking.Margin())

	if m.isExact(entry, best) {
		return workflow.AutoAccepted(best.Transaction, confidence, reason)
	}

	return workflow.PendingConfirmation(best.Transaction, best.Amount, confidence, reason)
}

// isExact reports whether the candidate agrees with the entry closely enough
// to skip user confirmation
func (m *Matcher) isExact(entry *models.ParsedEntry, c *MatchCandidate) bool {
	if !entry.HasMerchant() || !entry.HasAmount() {
		return false
	}

	if !m.norm.Equal(entry.Merchant, c.Transaction.Merchant) {
		return false
	}

	return relativeDiffPercent(c.Amount, *entry.Amount) <= m.config.AutoAcceptAmountTolerancePercent
}

// resultFromVerdict converts an already-validated oracle verdict into a
// result. Missing correction prompts are filled from the referenced
// candidate so the user-facing contract holds regardless of oracle phrasing.
func (m *Matcher) resultFromVerdict(verdict *oracle.Verdict, ranking *Ranking) *models.MatchResult {
	if !verdict.Matched {
		reason := verdict.Reason
		if reason == "" {
			reason = "oracle found no plausible match among the candidates"
		}
		return workflow.NoMatch(reason)
	}

	var chosen *MatchCandidate
	for _, c := range ranking.Candidates {
		if c.Transaction.ID == verdict.TransactionID {
			chosen = c
			break
		}
	}

	result := &models.MatchResult{
		Matched:          true,
		TransactionID:    verdict.TransactionID,
		Confidence:       verdict.Confidence,
		NeedsCorrection:  verdict.NeedsCorrection,
		CorrectionPrompt: verdict.CorrectionPrompt,
		Reason:           verdict.Reason,
	}

	if result.NeedsCorrection && result.CorrectionPrompt == "" && chosen != nil {
		result.CorrectionPrompt = workflow.CorrectionPrompt(
			chosen.Transaction.Merchant, chosen.Amount, chosen.Transaction.Timestamp)
	}

	return result
}
