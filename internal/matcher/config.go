// Package matcher links a user's self-reported spending memory to the single
// ledger transaction it most likely describes.
//
// Users misremember amounts, misname merchants, and report purchases hours
// after they happen, so the matcher tolerates noisy, partial input while
// refusing to corrupt a user's history with a wrong link. It works in stages:
//  1. Candidate filtering: bound the ledger snapshot to the most recent
//     entries and discard records without numeric amounts
//  2. Scoring: amount, merchant, and recency sub-scores combined into a
//     weighted total per candidate
//  3. Escalation: confidence- and margin-based referral of ambiguous
//     decisions to a secondary disambiguation oracle
//  4. Decision: one of four terminal outcomes handed to the caller
//
// Example usage:
//
//	config := matcher.DefaultMatchConfig()
//	config.ConfidenceThreshold = 75
//
//	m := matcher.New(config, normalizer.New(aliases), oracleClient, log)
//	result, err := m.Match(ctx, matcher.MatchRequest{
//		Entry:        entry,
//		Transcript:   transcript,
//		Transactions: snapshot,
//	})
package matcher

import (
	"fmt"
	"time"
)

// AmountTier maps a relative amount difference (percent) to a score. Tiers
// are evaluated in order; the first tier whose MaxDiffPercent covers the
// observed difference wins. A difference beyond every tier scores zero and
// excludes the candidate.
type AmountTier struct {
	MaxDiffPercent float64 `json:"max_diff_percent"`
	Score          float64 `json:"score"`
}

// SimilarityTier maps a minimum normalized edit-distance similarity to a
// score. Tiers are evaluated in order; the first tier whose MinSimilarity is
// met wins. Similarity below every tier scores zero.
type SimilarityTier struct {
	MinSimilarity float64 `json:"min_similarity"`
	Score         float64 `json:"score"`
}

// ScoreWeights defines the relative importance of the three sub-scores.
// Amount dominates because it is the least ambiguous signal users report;
// merchant is next; recency is a tie-breaker.
type ScoreWeights struct {
	Amount   float64 `json:"amount"`
	Merchant float64 `json:"merchant"`
	Recency  float64 `json:"recency"`
}

// MatchConfig holds the tunable parameters of the matching algorithm.
//
// The shipped defaults are heuristics carried over from production usage, not
// validated optima, which is exactly why they live in configuration instead of
// constants. Use the factory functions for common postures:
//   - DefaultMatchConfig(): balanced matching for most users
//   - StrictMatchConfig(): fewer auto-accepts, more confirmations
//   - RelaxedMatchConfig(): wider search for sparse or stale ledgers
type MatchConfig struct {
	// MaxCandidates bounds the recency-ordered working set taken from the
	// ledger snapshot. Users overwhelmingly describe recent events.
	MaxCandidates int `json:"max_candidates"`

	// Weights combines the three sub-scores into the total score
	Weights ScoreWeights `json:"weights"`

	// AmountTiers scores the relative percent difference between the
	// reported and ledger amounts
	AmountTiers []AmountTier `json:"amount_tiers"`

	// MerchantSimilarityTiers scores normalized edit-distance similarity
	// for merchant names that fail the stronger comparisons
	MerchantSimilarityTiers []SimilarityTier `json:"merchant_similarity_tiers"`

	// ContainmentScore is awarded when one normalized merchant name
	// contains the other
	ContainmentScore float64 `json:"containment_score"`

	// FuzzyNeighborScore is awarded when the candidate merchant is found as
	// a near-neighbor in the trigram similarity index
	FuzzyNeighborScore float64 `json:"fuzzy_neighbor_score"`

	// FuzzyDistanceThreshold is the maximum trigram distance (1 - Jaccard)
	// for a merchant to count as a near-neighbor
	FuzzyDistanceThreshold float64 `json:"fuzzy_distance_threshold"`

	// NeutralMerchantScore is used when the user supplied no merchant guess
	// at all: neither a strong positive nor a negative signal
	NeutralMerchantScore float64 `json:"neutral_merchant_score"`

	// RecencyFloor is the minimum recency score, so old but otherwise
	// plausible transactions are never zeroed out
	RecencyFloor float64 `json:"recency_floor"`

	// ConfidenceThreshold is the minimum winner confidence below which the
	// decision is considered ambiguous and escalated
	ConfidenceThreshold float64 `json:"confidence_threshold"`

	// MarginThreshold is the minimum gap between the best and second-best
	// total scores below which the decision is escalated
	MarginThreshold float64 `json:"margin_threshold"`

	// EscalationCandidates is how many top-ranked candidates are presented
	// to the disambiguation oracle
	EscalationCandidates int `json:"escalation_candidates"`

	// AutoAcceptAmountTolerancePercent is the maximum relative amount
	// difference for a match to skip user confirmation (merchant names must
	// also be normalized-equal)
	AutoAcceptAmountTolerancePercent float64 `json:"auto_accept_amount_tolerance_percent"`

	// OracleTimeout bounds the single disambiguation attempt. On expiry the
	// deterministic result is used.
	OracleTimeout time.Duration `json:"oracle_timeout"`
}

// DefaultMatchConfig returns a configuration with the production defaults
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		MaxCandidates: 15,
		Weights: ScoreWeights{
			Amount:   0.55,
			Merchant: 0.35,
			Recency:  0.10,
		},
		AmountTiers: []AmountTier{
			{MaxDiffPercent: 1, Score: 100},
			{MaxDiffPercent: 5, Score: 90},
			{MaxDiffPercent: 10, Score: 80},
			{MaxDiffPercent: 20, Score: 50},
		},
		MerchantSimilarityTiers: []SimilarityTier{
			{MinSimilarity: 0.85, Score: 80},
			{MinSimilarity: 0.70, Score: 60},
			{MinSimilarity: 0.50, Score: 40},
		},
		ContainmentScore:                 95,
		FuzzyNeighborScore:               90,
		FuzzyDistanceThreshold:           0.45,
		NeutralMerchantScore:             40,
		RecencyFloor:                     10,
		ConfidenceThreshold:              70,
		MarginThreshold:                  15,
		EscalationCandidates:             4,
		AutoAcceptAmountTolerancePercent: 1.0,
		OracleTimeout:                    10 * time.Second,
	}
}

// StrictMatchConfig returns a configuration that escalates more readily and
// auto-accepts less
func StrictMatchConfig() *MatchConfig {
	config := DefaultMatchConfig()
	config.MaxCandidates = 10
	config.ConfidenceThreshold = 80
	config.MarginThreshold = 20
	config.AutoAcceptAmountTolerancePercent = 0.5
	config.FuzzyDistanceThreshold = 0.35
	return config
}

// RelaxedMatchConfig returns a configuration for sparse or stale ledgers
func RelaxedMatchConfig() *MatchConfig {
	config := DefaultMatchConfig()
	config.MaxCandidates = 25
	config.ConfidenceThreshold = 60
	config.MarginThreshold = 10
	config.FuzzyDistanceThreshold = 0.55
	return config
}

// Validate checks if the match configuration is valid
func (mc *MatchConfig) Validate() error {
	if mc.MaxCandidates <= 0 {
		return fmt.Errorf("max candidates must be positive: %d", mc.MaxCandidates)
	}

	if err := mc.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}

	if len(mc.AmountTiers) == 0 {
		return fmt.Errorf("at least one amount tier is required")
	}

	prevCutoff := 0.0
	for i, tier := range mc.AmountTiers {
		if tier.MaxDiffPercent <= prevCutoff {
			return fmt.Errorf("amount tiers must be in ascending cutoff order at index %d", i)
		}
		if tier.Score < 0 || tier.Score > 100 {
			return fmt.Errorf("amount tier score must be between 0 and 100: %f", tier.Score)
		}
		prevCutoff = tier.MaxDiffPercent
	}

	prevSim := 1.1
	for i, tier := range mc.MerchantSimilarityTiers {
		if tier.MinSimilarity >= prevSim {
			return fmt.Errorf("merchant similarity tiers must be in descending order at index %d", i)
		}
		if tier.MinSimilarity < 0 || tier.MinSimilarity > 1 {
			return fmt.Errorf("merchant similarity cutoff must be between 0 and 1: %f", tier.MinSimilarity)
		}
		if tier.Score < 0 || tier.Score > 100 {
			return fmt.Errorf("merchant similarity tier score must be between 0 and 100: %f", tier.Score)
		}
		prevSim = tier.MinSimilarity
	}

	for name, score := range map[string]float64{
		"containment_score":      mc.ContainmentScore,
		"fuzzy_neighbor_score":   mc.FuzzyNeighborScore,
		"neutral_merchant_score": mc.NeutralMerchantScore,
		"recency_floor":          mc.RecencyFloor,
	} {
		if score < 0 || score > 100 {
			return fmt.Errorf("%s must be between 0 and 100: %f", name, score)
		}
	}

	if mc.FuzzyDistanceThreshold < 0 || mc.FuzzyDistanceThreshold > 1 {
		return fmt.Errorf("fuzzy distance threshold must be between 0 and 1: %f", mc.FuzzyDistanceThreshold)
	}

	if mc.ConfidenceThreshold < 0 || mc.ConfidenceThreshold > 100 {
		return fmt.Errorf("confidence threshold must be between 0 and 100: %f", mc.ConfidenceThreshold)
	}

	if mc.MarginThreshold < 0 || mc.MarginThreshold > 100 {
		return fmt.Errorf("margin threshold must be between 0 and 100: %f", mc.MarginThreshold)
	}

	if mc.EscalationCandidates <= 0 {
		return fmt.Errorf("escalation candidates must be positive: %d", mc.EscalationCandidates)
	}

	if mc.AutoAcceptAmountTolerancePercent < 0 || mc.AutoAcceptAmountTolerancePercent > 100 {
		return fmt.Errorf("auto-accept amount tolerance must be between 0 and 100: %f", mc.AutoAcceptAmountTolerancePercent)
	}

	if mc.OracleTimeout <= 0 {
		return fmt.Errorf("oracle timeout must be positive: %s", mc.OracleTimeout)
	}

	return nil
}

// Validate checks if the score weights are valid
func (sw *ScoreWeights) Validate() error {
	for name, w := range map[string]float64{
		"amount":   sw.Amount,
		"merchant": sw.Merchant,
		"recency":  sw.Recency,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%s weight must be between 0.0 and 1.0: %f", name, w)
		}
	}

	// Weights should sum to approximately 1.0 (allow some tolerance)
	total := sw.Amount + sw.Merchant + sw.Recency
	if total < 0.9 || total > 1.1 {
		return fmt.Errorf("weights should sum to approximately 1.0, got %f", total)
	}

	return nil
}

// Clone creates a deep copy of the match configuration
func (mc *MatchConfig) Clone() *MatchConfig {
	if mc == nil {
		return nil
	}

	clone := *mc
	clone.AmountTiers = make([]AmountTier, len(mc.AmountTiers))
	copy(clone.AmountTiers, mc.AmountTiers)
	clone.MerchantSimilarityTiers = make([]SimilarityTier, len(mc.MerchantSimilarityTiers))
	copy(clone.MerchantSimilarityTiers, mc.MerchantSimilarityTiers)
	return &clone
}

// ScoreForAmountDiff returns the tier score for a relative amount difference
// in percent. Differences beyond the last tier score zero.
func (mc *MatchConfig) ScoreForAmountDiff(diffPercent float64) float64 {
	for _, tier := range mc.AmountTiers {
		if diffPercent <= tier.MaxDiffPercent {
			return tier.Score
		}
	}
	return 0
}

// ScoreForEditSimilarity returns the tier score for a normalized
// edit-distance similarity in [0,1]. Similarity below every tier scores zero.
func (mc *MatchConfig) ScoreForEditSimilarity(similarity float64) float64 {
	for _, tier := range mc.MerchantSimilarityTiers {
		if similarity >= tier.MinSimilarity {
			return tier.Score
		}
	}
	return 0
}

// String returns a human-readable description of the configuration
func (mc *MatchConfig) String() string {
	return fmt.Sprintf("MatchConfig{MaxCandidates: %d, Weights: %.2f/%.2f/%.2f, Confidence: %.0f, Margin: %.0f}",
		mc.MaxCandidates, mc.Weights.Amount, mc.Weights.Merchant, mc.Weights.Recency,
		mc.ConfidenceThreshold, mc.MarginThreshold)
}
