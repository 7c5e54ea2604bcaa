package matcher

import (
	"sort"
	"strings"
	"time"

	"journal-ledger-matcher/internal/models"
	"journal-ledger-matcher/internal/normalizer"

	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// MatchCandidate is an ephemeral scoring record for one ledger transaction:
// the three sub-scores and their weighted total, each in [0,100]. Created per
// scoring pass and discarded after the call.
type MatchCandidate struct {
	Transaction   *models.LedgerTransaction
	Amount        decimal.Decimal
	AmountScore   float64
	MerchantScore float64
	RecencyScore  float64
	TotalScore    float64
}

// Ranking is the scorer's output: candidates sorted by descending total
// score, with the best and second-best retained for margin analysis.
type Ranking struct {
	Candidates []*MatchCandidate
	Best       *MatchCandidate
	SecondBest *MatchCandidate
}

// HasCandidates reports whether any candidate survived scoring
func (r *Ranking) HasCandidates() bool {
	return r != nil && len(r.Candidates) > 0
}

// Margin returns the stability gap between the best and second-best total
// scores. With a single candidate the margin is the best score itself.
func (r *Ranking) Margin() float64 {
	if !r.HasCandidates() {
		return 0
	}
	if r.SecondBest == nil {
		return r.Best.TotalScore
	}
	return r.Best.TotalScore - r.SecondBest.TotalScore
}

// Top returns up to n of the highest-ranked candidates
func (r *Ranking) Top(n int) []*MatchCandidate {
	if !r.HasCandidates() || n <= 0 {
		return nil
	}
	if n > len(r.Candidates) {
		n = len(r.Candidates)
	}
	return r.Candidates[:n]
}

// Scorer computes per-candidate sub-scores and weighted totals for a parsed
// entry against a working set.
type Scorer struct {
	config *MatchConfig
	norm   *normalizer.Normalizer
}

// NewScorer creates a scorer with the given configuration and normalizer
func NewScorer(config *MatchConfig, norm *normalizer.Normalizer) *Scorer {
	if config == nil {
		config = DefaultMatchConfig()
	}
	if norm == nil {
		norm = normalizer.New(nil)
	}

	return &Scorer{config: config, norm: norm}
}

// Score ranks the working set against the entry. Candidates whose amount
// score is zero while the user stated an amount are hard-excluded before
// ranking. An empty ranking means no viable candidate, never a degenerate
// zero-score winner.
func (s *Scorer) Score(entry *models.ParsedEntry, working []*WorkingTransaction, reference time.Time) *Ranking {
	ranking := &Ranking{}
	if len(working) == 0 {
		return ranking
	}

	userMerchant := ""
	if entry.HasMerchant() {
		userMerchant = s.norm.Normalize(entry.Merchant)
	}

	index := s.buildMerchantIndex(working)

	for _, wt := range working {
		amountScore, excluded := s.scoreAmount(entry, wt.Amount)
		if excluded {
			continue
		}

		candidate := &MatchCandidate{
			Transaction:   wt.Tx,
			Amount:        wt.Amount,
			AmountScore:   amountScore,
			MerchantScore: s.scoreMerchant(userMerchant, wt.Tx.Merchant, index),
			RecencyScore:  s.scoreRecency(wt.Tx.Timestamp, reference),
		}
		candidate.TotalScore = s.combine(entry, candidate)

		ranking.Candidates = append(ranking.Candidates, candidate)
	}

	if len(ranking.Candidates) == 0 {
		return ranking
	}

	// Deterministic order: total score, then recency, then ID
	sort.SliceStable(ranking.Candidates, func(i, j int) bool {
		a, b := ranking.Candidates[i], ranking.Candidates[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if !a.Transaction.Timestamp.Equal(b.Transaction.Timestamp) {
			return a.Transaction.Timestamp.After(b.Transaction.Timestamp)
		}
		return a.Transaction.ID < b.Transaction.ID
	})

	ranking.Best = ranking.Candidates[0]
	if len(ranking.Candidates) > 1 {
		ranking.SecondBest = ranking.Candidates[1]
	}

	return ranking
}

// buildMerchantIndex indexes the normalized merchant names of the working set
func (s *Scorer) buildMerchantIndex(working []*WorkingTransaction) *MerchantIndex {
	names := make([]string, 0, len(working))
	for _, wt := range working {
		names = append(names, s.norm.Normalize(wt.Tx.Merchant))
	}
	return NewMerchantIndex(names)
}

// scoreAmount scores the relative difference between the stated and ledger
// amounts. Returns excluded=true when the user stated an amount and the
// difference falls beyond every tier. An absent user amount neutralizes the
// factor entirely: no score, no exclusion.
func (s *Scorer) scoreAmount(entry *models.ParsedEntry, txAmount decimal.Decimal) (score float64, excluded bool) {
	if !entry.HasAmount() {
		return 0, false
	}

	diffPercent := relativeDiffPercent(txAmount, *entry.Amount)
	score = s.config.ScoreForAmountDiff(diffPercent)
	return score, score == 0
}

// scoreMerchant compares the user's normalized merchant guess against a
// candidate's, working down the comparison ladder: identical, containment,
// trigram near-neighbor, edit-distance tiers. No guess at all gets the
// neutral score.
func (s *Scorer) scoreMerchant(userMerchant, txMerchant string, index *MerchantIndex) float64 {
	if userMerchant == "" {
		return s.config.NeutralMerchantScore
	}

	candidate := s.norm.Normalize(txMerchant)
	if candidate == "" {
		return 0
	}

	if userMerchant == candidate {
		return 100
	}

	if strings.Contains(candidate, userMerchant) || strings.Contains(userMerchant, candidate) {
		return s.config.ContainmentScore
	}

	if index.IsNearNeighbor(userMerchant, candidate, s.config.FuzzyDistanceThreshold) {
		return s.config.FuzzyNeighborScore
	}

	return s.config.ScoreForEditSimilarity(editSimilarity(userMerchant, candidate))
}

// scoreRecency decays linearly with whole days since the transaction, with a
// floor so old but plausible transactions are never zeroed out. Transactions
// timestamped after the reference count as zero days old.
func (s *Scorer) scoreRecency(txTime, reference time.Time) float64 {
	days := int(reference.Sub(txTime).Hours() / 24)
	if days < 0 {
		days = 0
	}

	score := 100 - float64(days)
	if score < s.config.RecencyFloor {
		return s.config.RecencyFloor
	}
	return score
}

// combine produces the weighted total. When the user stated no amount the
// amount weight is dropped and the remaining weights are renormalized, so
// merchant and recency keep their relative proportions and the total stays in
// [0,100].
func (s *Scorer) combine(entry *models.ParsedEntry, c *MatchCandidate) float64 {
	w := s.config.Weights

	if !entry.HasAmount() {
		remaining := w.Merchant + w.Recency
		if remaining == 0 {
			return 0
		}
		return (c.MerchantScore*w.Merchant + c.RecencyScore*w.Recency) / remaining
	}

	return c.AmountScore*w.Amount + c.MerchantScore*w.Merchant + c.RecencyScore*w.Recency
}

// relativeDiffPercent computes |txAmount - userAmount| / max(txAmount, ε) * 100.
// The epsilon guards against zero-amount ledger records.
func relativeDiffPercent(txAmount, userAmount decimal.Decimal) float64 {
	epsilon := decimal.New(1, -2) // 0.01

	base := txAmount.Abs()
	if base.LessThan(epsilon) {
		base = epsilon
	}

	diff := txAmount.Abs().Sub(userAmount.Abs()).Abs()
	return diff.Div(base).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// editSimilarity computes normalized edit-distance similarity:
// 1 - editDistance/maxLen, over runes.
func editSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 0
	}

	distance := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)
	return 1.0 - float64(distance)/float64(maxLen)
}
