// Package workflow turns scored match decisions into terminal outcomes and
// owns the confirm/reject transitions driven by the user.
//
// Every match ends in exactly one of four states: AutoAccepted,
// PendingConfirmation, Rejected, or NoMatch. The state machine is the single
// source of truth for what a caller must persist — there is no half match.
package workflow

import (
	"fmt"
	"time"

	"journal-ledger-matcher/internal/models"

	"github.com/shopspring/decimal"
)

// Outcome represents a terminal state of the correction workflow
type Outcome int

const (
	// OutcomeAutoAccepted is a link trusted without user confirmation:
	// normalized merchant names identical and amounts within tolerance
	OutcomeAutoAccepted Outcome = iota

	// OutcomePendingConfirmation is a proposed link awaiting the user's
	// yes/no before it may be treated as ground truth
	OutcomePendingConfirmation

	// OutcomeRejected is a proposal the user declined; the entry stays
	// unlinked
	OutcomeRejected

	// OutcomeNoMatch means no candidate survived filtering and scoring
	OutcomeNoMatch
)

// String returns the string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeAutoAccepted:
		return "AutoAccepted"
	case OutcomePendingConfirmation:
		return "PendingConfirmation"
	case OutcomeRejected:
		return "Rejected"
	case OutcomeNoMatch:
		return "NoMatch"
	default:
		return "Unknown"
	}
}

// SkepticalMessage is shown when the matcher declines to propose anything
const SkepticalMessage = "I couldn't find a transaction that matches what you described. " +
	"Want to try again with the amount or merchant, or keep the entry unlinked?"

// CorrectionPrompt renders the confirmation question for a proposed link
func CorrectionPrompt(merchant string, amount decimal.Decimal, date time.Time) string {
	return fmt.Sprintf("Did you mean %s ($%s) on %s?",
		merchant, amount.StringFixed(2), date.Format("2006-01-02"))
}

// AutoAccepted builds the result for a link trusted without confirmation
func AutoAccepted(tx *models.LedgerTransaction, confidence int, reason string) *models.MatchResult {
	return &models.MatchResult{
		Matched:       true,
		TransactionID: tx.ID,
		Confidence:    confidence,
		Reason:        reason,
	}
}

// PendingConfirmation builds the result for a proposal the user must confirm
func PendingConfirmation(tx *models.LedgerTransaction, amount decimal.Decimal, confidence int, reason string) *models.MatchResult {
	return &models.MatchResult{
		Matched:          true,
		TransactionID:    tx.ID,
		Confidence:       confidence,
		NeedsCorrection:  true,
		CorrectionPrompt: CorrectionPrompt(tx.Merchant, amount, tx.Timestamp),
		Reason:           reason,
	}
}

// NoMatch builds the result for an empty ranking
func NoMatch(reason string) *models.MatchResult {
	return &models.MatchResult{
		Matched:          false,
		SkepticalMessage: SkepticalMessage,
		Reason:           reason,
	}
}

// OutcomeFor derives the workflow state a fresh MatchResult is in. Rejected
// only ever arises through Reject.
func OutcomeFor(result *models.MatchResult) Outcome {
	switch {
	case result.Matched && result.NeedsCorrection:
		return OutcomePendingConfirmation
	case result.Matched:
		return OutcomeAutoAccepted
	default:
		return OutcomeNoMatch
	}
}

// ConfirmedLink is the payload persisted once the user confirms a proposal.
// The ledger's merchant spelling replaces the user's own wording: the ledger
// is ground truth once confirmed.
type ConfirmedLink struct {
	TransactionID string               `json:"transaction_id"`
	Merchant      string               `json:"merchant"`
	Amount        decimal.Decimal      `json:"amount"`
	Category      models.Category      `json:"category"`
	Emotion       models.Emotion       `json:"emotion"`
	Context       string               `json:"context,omitempty"`
	Confidence    int                  `json:"confidence"`
	Result        *models.MatchResult  `json:"result"`
}

// Confirm applies the user's "yes, that's it" to a pending proposal. The
// returned link carries the ledger transaction's own merchant and amount, and
// a result with the correction cleared.
func Confirm(result *models.MatchResult, tx *models.LedgerTransaction, entry *models.ParsedEntry) (*ConfirmedLink, error) {
	if result == nil || tx == nil || entry == nil {
		return nil, fmt.Errorf("result, transaction, and entry are all required")
	}

	if OutcomeFor(result) != OutcomePendingConfirmation {
		return nil, fmt.Errorf("only a pending proposal can be confirmed, got %s", OutcomeFor(result))
	}

	if result.TransactionID != tx.ID {
		return nil, fmt.Errorf("proposal references transaction %s, not %s", result.TransactionID, tx.ID)
	}

	amount, err := tx.AmountDecimal()
	if err != nil {
		return nil, fmt.Errorf("confirmed transaction has unparseable amount: %w", err)
	}

	confirmed := &models.MatchResult{
		Matched:       true,
		TransactionID: tx.ID,
		Confidence:    result.Confidence,
		Reason:        "confirmed by user",
	}

	return &ConfirmedLink{
		TransactionID: tx.ID,
		Merchant:      tx.Merchant,
		Amount:        amount,
		Category:      tx.Category,
		Emotion:       entry.Emotion,
		Context:       entry.Context,
		Confidence:    result.Confidence,
		Result:        confirmed,
	}, nil
}

// RejectedEntry is the payload persisted when the user declines a proposal:
// the original entry retained without any transaction link.
type RejectedEntry struct {
	Entry   *models.ParsedEntry `json:"entry"`
	Outcome Outcome             `json:"-"`
	Result  *models.MatchResult `json:"result"`
}

// Reject applies the user's "no, I meant what I said" to a pending proposal
func Reject(result *models.MatchResult, entry *models.ParsedEntry) (*RejectedEntry, error) {
	if result == nil || entry == nil {
		return nil, fmt.Errorf("result and entry are required")
	}

	if OutcomeFor(result) != OutcomePendingConfirmation {
		return nil, fmt.Errorf("only a pending proposal can be rejected, got %s", OutcomeFor(result))
	}

	return &RejectedEntry{
		Entry:   entry,
		Outcome: OutcomeRejected,
		Result: &models.MatchResult{
			Matched: false,
			Reason:  "proposal rejected by user",
		},
	}, nil
}
