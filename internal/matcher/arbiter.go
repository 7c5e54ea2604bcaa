package matcher

import (
	"context"
	"math"
	"time"

	"journal-ledger-matcher/internal/models"
	"journal-ledger-matcher/internal/oracle"
	"journal-ledger-matcher/pkg/logger"
)

// arbiter decides when a ranking is too uncertain to trust and, when it is,
// makes the single bounded oracle attempt. Any oracle failure is absorbed:
// the deterministic ranking always stands as the fallback.
type arbiter struct {
	config *MatchConfig
	client oracle.Client
	logger logger.Logger
}

func newArbiter(config *MatchConfig, client oracle.Client, log logger.Logger) *arbiter {
	if log == nil {
		log = logger.Nop()
	}

	return &arbiter{
		config: config,
		client: client,
		logger: log.WithComponent("arbiter"),
	}
}

// shouldEscalate reports whether the ranking is ambiguous: best confidence
// below the confidence threshold, or the gap to the runner-up below the
// margin threshold.
func (a *arbiter) shouldEscalate(ranking *Ranking) bool {
	if !ranking.HasCandidates() {
		return false
	}

	confidence := ranking.Best.TotalScore
	margin := ranking.Margin()

	return confidence < a.config.ConfidenceThreshold || margin < a.config.MarginThreshold
}

// consult presents the top-ranked candidates to the oracle and returns its
// verdict, or nil when the verdict cannot be trusted. A nil return is not an
// error condition; the caller keeps its deterministic result.
func (a *arbiter) consult(ctx context.Context, entry *models.ParsedEntry, transcript string, entryTime time.Time, ranking *Ranking) *oracle.Verdict {
	if a.client == nil {
		return nil
	}

	top := ranking.Top(a.config.EscalationCandidates)
	candidates := make([]oracle.Candidate, 0, len(top))
	for _, c := range top {
		candidates = append(candidates, oracle.Candidate{
			ID:       c.Transaction.ID,
			Merchant: c.Transaction.Merchant,
			Amount:   c.Amount,
			Date:     c.Transaction.Timestamp,
			Score:    c.TotalScore,
		})
	}

	claim := oracle.UserClaim{
		Transcript: transcript,
		Merchant:   entry.Merchant,
		Amount:     entry.Amount,
		Category:   entry.Category,
		EntryTime:  entryTime,
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.OracleTimeout)
	defer cancel()

	a.logger.WithFields(logger.Fields{
		"candidates": len(candidates),
		"best_score": ranking.Best.TotalScore,
		"margin":     ranking.Margin(),
	}).Debug("Consulting disambiguation oracle")

	verdict, err := a.client.Disambiguate(ctx, claim, candidates)
	if err != nil {
		a.logger.WithError(err).Warn("Oracle consultation failed, keeping deterministic result")
		return nil
	}

	if err := verdict.Validate(); err != nil {
		a.logger.WithError(err).Warn("Oracle returned malformed verdict, keeping deterministic result")
		return nil
	}

	if verdict.Matched && !verdict.References(candidates) {
		a.logger.WithField("transaction_id", verdict.TransactionID).
			Warn("Oracle named a transaction outside the presented candidates, keeping deterministic result")
		return nil
	}

	a.logger.WithFields(logger.Fields{
		"matched":        verdict.Matched,
		"transaction_id": verdict.TransactionID,
		"confidence":     verdict.Confidence,
	}).Debug("Oracle verdict accepted")

	return verdict
}

// roundConfidence converts a weighted total score into the integer confidence
// reported to the caller
func roundConfidence(score float64) int {
	c := int(math.Round(score))
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
