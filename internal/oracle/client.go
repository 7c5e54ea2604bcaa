// Package oracle defines the secondary disambiguation capability consulted
// when deterministic scoring is too uncertain to trust.
//
// The oracle is an optional, higher-cost decision service. Callers make a
// single bounded attempt and fall back to their deterministic result on any
// failure: availability is prioritized over adjudication quality, and an
// oracle failure is never an error to the user.
package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"journal-ledger-matcher/internal/models"

	"github.com/shopspring/decimal"
)

// Candidate is one ranked transaction presented to the oracle
type Candidate struct {
	ID       string
	Merchant string
	Amount   decimal.Decimal
	Date     time.Time
	Score    float64
}

// UserClaim is the user's side of the disambiguation: what they said and
// what was parsed out of it.
type UserClaim struct {
	Transcript string
	Merchant   string
	Amount     *decimal.Decimal
	Category   models.Category
	EntryTime  time.Time
}

// Verdict is the oracle's structured decision. The caller validates that a
// matched verdict references one of the candidates it presented before
// applying it.
type Verdict struct {
	Matched          bool   `json:"matched"`
	TransactionID    string `json:"transaction_id"`
	Confidence       int    `json:"confidence"`
	NeedsCorrection  bool   `json:"needs_correction"`
	CorrectionPrompt string `json:"correction_prompt"`
	Reason           string `json:"reason"`
}

// Validate checks that the verdict is well-formed on its own terms
func (v *Verdict) Validate() error {
	if v.Matched && strings.TrimSpace(v.TransactionID) == "" {
		return fmt.Errorf("matched verdict must carry a transaction ID")
	}

	if v.Confidence < 0 || v.Confidence > 100 {
		return fmt.Errorf("verdict confidence must be between 0 and 100: %d", v.Confidence)
	}

	if v.NeedsCorrection && strings.TrimSpace(v.CorrectionPrompt) == "" {
		return fmt.Errorf("verdict requiring correction must carry a prompt")
	}

	return nil
}

// References reports whether the verdict points at one of the presented
// candidates. Unmatched verdicts reference trivially.
func (v *Verdict) References(candidates []Candidate) bool {
	if !v.Matched {
		return true
	}

	for _, c := range candidates {
		if c.ID == v.TransactionID {
			return true
		}
	}

	return false
}

// Client is the disambiguation capability. Implementations must honor the
// context deadline; callers perform exactly one attempt per decision.
type Client interface {
	Disambiguate(ctx context.Context, claim UserClaim, candidates []Candidate) (*Verdict, error)
}
