package matcher

import (
	"context"
	"strings"
	"testing"
	"time"

	"journal-ledger-matcher/internal/models"
	"journal-ledger-matcher/internal/oracle"
	"journal-ledger-matcher/internal/workflow"
)

func newTestMatcher(t *testing.T, config *MatchConfig, client oracle.Client) *Matcher {
	t.Helper()
	m, err := New(config, nil, client, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return m
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	config := DefaultMatchConfig()
	config.MaxCandidates = -1

	if _, err := New(config, nil, nil, nil); err == nil {
		t.Fatal("expected an error for invalid configuration")
	}
}

func TestMatchRequiresEntry(t *testing.T) {
	m := newTestMatcher(t, nil, nil)
	if _, err := m.Match(context.Background(), MatchRequest{}); err == nil {
		t.Fatal("expected an error for a request without an entry")
	}
}

func TestMatchCleanAutoAccept(t *testing.T) {
	mock := &oracle.MockClient{}
	m := newTestMatcher(t, nil, mock)

	result, err := m.Match(context.Background(), MatchRequest{
		Entry:      makeEntry("47", "Uber Eats"),
		Transcript: "spent forty-seven dollars on uber eats",
		EntryTime:  scoreReference,
		Transactions: []*models.LedgerTransaction{
			makeTransaction("tx_uber", "47.23", "Uber Eats", 0),
			makeTransaction("tx_gas", "35.00", "Shell", 2),
		},
	})
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	if !result.Matched || result.TransactionID != "tx_uber" {
		t.Fatalf("expected a link to tx_uber, got %+v", result)
	}
	if result.NeedsCorrection {
		t.Error("identical merchant within amount tolerance must not need correction")
	}
	if result.Confidence < 90 {
		t.Errorf("confidence = %d, want >= 90", result.Confidence)
	}
	if workflow.OutcomeFor(result) != workflow.OutcomeAutoAccepted {
		t.Errorf("outcome = %s, want AutoAccepted", workflow.OutcomeFor(result))
	}
	if mock.CallCount() != 0 {
		t.Errorf("unambiguous match must not consult the oracle, got %d calls", mock.CallCount())
	}
	if err := result.Validate(); err != nil {
		t.Errorf("result should be internally consistent: %v", err)
	}
}

func TestMatchMerchantMismatchNeedsCorrection(t *testing.T) {
	m := newTestMatcher(t, nil, nil)

	result, err := m.Match(context.Background(), MatchRequest{
		Entry:     makeEntry("75", "Target"),
		EntryTime: scoreReference,
		Transactions: []*models.LedgerTransaction{
			makeTransaction("tx_wf", "70.04", "Whole Foods", 5),
			makeTransaction("tx_gas", "40.00", "Shell", 1),
		},
	})
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	if !result.Matched || result.TransactionID != "tx_wf" {
		t.Fatalf("expected a proposal for tx_wf, got %+v", result)
	}
	if !result.NeedsCorrection {
		t.Error("a different merchant name must need correction")
	}
	if !strings.Contains(result.CorrectionPrompt, "Whole Foods ($70.04)") {
		t.Errorf("prompt %q should reference the ledger transaction", result.CorrectionPrompt)
	}
	if err := result.Validate(); err != nil {
		t.Errorf("result should be internally consistent: %v", err)
	}
}

func TestMatchNothingPlausible(t *testing.T) {
	m := newTestMatcher(t, nil, nil)

	result, err := m.Match(context.Background(), MatchRequest{
		Entry:     makeEntry("200", "Nike"),
		EntryTime: scoreReference,
		Transactions: []*models.LedgerTransaction{
			makeTransaction("tx_coffee", "6.40", "Blue Bottle", 0),
			makeTransaction("tx_deli", "12.50", "Corner Deli", 1),
		},
	})
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	if result.Matched {
		t.Fatalf("expected no match, got %+v", result)
	}
	if result.SkepticalMessage == "" {
		t.Error("a no-match result must carry the skeptical message")
	}
	if workflow.OutcomeFor(result) != workflow.OutcomeNoMatch {
		t.Errorf("outcome = %s, want NoMatch", workflow.OutcomeFor(result))
	}
}

func TestMatchEmptyLedger(t *testing.T) {
	m := newTestMatcher(t, nil, nil)

	result, err := m.Match(context.Background(), MatchRequest{
		Entry:     makeEntry("10", "Coffee"),
		EntryTime: scoreReference,
	})
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if result.Matched || result.SkepticalMessage == "" {
		t.Errorf("empty ledger should yield a skeptical no-match, got %+v", result)
	}
}

// ambiguousRequest produces two candidates whose totals sit within the margin
// threshold of each other
func ambiguousRequest() MatchRequest {
	return MatchRequest{
		Entry:      makeEntry("5", "Starbucks"),
		Transcript: "five bucks at starbucks i think",
		EntryTime:  scoreReference,
		Transactions: []*models.LedgerTransaction{
			makeTransaction("tx_sb1", "5.25", "Starbucks", 1),
			makeTransaction("tx_sb2", "5.05", "Starbucks", 2),
		},
	}
}

func TestMatchAmbiguousConsultsOracleOnce(t *testing.T) {
	mock := &oracle.MockClient{
		Verdict: &oracle.Verdict{
			Matched:       true,
			TransactionID: "tx_sb1",
			Confidence:    88,
			Reason:        "transcript hedges on the amount, the larger charge fits",
		},
	}
	m := newTestMatcher(t, nil, mock)

	result, err := m.Match(context.Background(), ambiguousRequest())
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}

	if mock.CallCount() != 1 {
		t.Fatalf("oracle calls = %d, want exactly 1", mock.CallCount())
	}

	call := mock.Calls[0]
	if len(call.Candidates) != 2 {
		t.Errorf("oracle saw %d candidates, want 2", len(call.Candidates))
	}
	if call.Claim.Transcript == "" {
		t.Error("oracle should receive the raw transcript")
	}

	if result.TransactionID != "tx_sb1" {
		t.Errorf("verdict should override the deterministic winner, got %s", result.TransactionID)
	}
	if result.Confidence != 88 {
		t.Errorf("confidence = %d, want the oracle's 88", result.Confidence)
	}
}

func TestMatchOracleErrorFallsBack(t *testing.T) {
	mock := &oracle.MockClient{Err: context.DeadlineExceeded}
	m := newTestMatcher(t, nil, mock)

	result, err := m.Match(context.Background(), ambiguousRequest())
	if err != nil {
		t.Fatalf("oracle failure must not surface as an error: %v", err)
	}

	if mock.CallCount() != 1 {
		t.Fatalf("oracle calls = %d, want exactly 1", mock.CallCount())
	}
	if !result.Matched || result.TransactionID != "tx_sb2" {
		t.Errorf("expected the deterministic winner tx_sb2, got %+v", result)
	}
}

func TestMatchOracleTimeoutFallsBack(t *testing.T) {
	config := DefaultMatchConfig()
	config.OracleTimeout = 20 * time.Millisecond

	mock := &oracle.MockClient{
		Respond: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	m := newTestMatcher(t, config, mock)

	result, err := m.Match(context.Background(), ambiguousRequest())
	if err != nil {
		t.Fatalf("oracle timeout must not surface as an error: %v", err)
	}
	if !result.Matched || result.TransactionID != "tx_sb2" {
		t.Errorf("expected the deterministic winner tx_sb2, got %+v", result)
	}
}

func TestMatchMalformedVerdictFallsBack(t *testing.T) {
	// Matched verdict without a transaction ID is malformed
	mock := &oracle.MockClient{
		Verdict: &oracle.Verdict{Matched: true, Confidence: 80},
	}
	m := newTestMatcher(t, nil, mock)

	result, err := m.Match(context.Background(), ambiguousRequest())
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if result.TransactionID != "tx_sb2" {
		t.Errorf("malformed verdict must be discarded, got %+v", result)
	}
}

func TestMatchForeignVerdictFallsBack(t *testing.T) {
	// The oracle names a transaction it was never shown
	mock := &oracle.MockClient{
		Verdict: &oracle.Verdict{Matched: true, TransactionID: "tx_invented", Confidence: 95},
	}
	m := newTestMatcher(t, nil, mock)

	result, err := m.Match(context.Background(), ambiguousRequest())
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if result.TransactionID != "tx_sb2" {
		t.Errorf("verdict naming an unseen transaction must be discarded, got %+v", result)
	}
}

func TestMatchOracleNoMatchVerdict(t *testing.T) {
	mock := &oracle.MockClient{
		Verdict: &oracle.Verdict{
			Matched: false,
			Reason:  "neither charge fits the transcript",
		},
	}
	m := newTestMatcher(t, nil, mock)

	result, err := m.Match(context.Background(), ambiguousRequest())
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if result.Matched {
		t.Fatalf("oracle no-match verdict should stand, got %+v", result)
	}
	if result.SkepticalMessage == "" {
		t.Error("oracle-driven no-match must still carry the skeptical message")
	}
	if !strings.Contains(result.Reason, "neither charge") {
		t.Errorf("reason should carry the oracle's explanation, got %q", result.Reason)
	}
}

func TestMatchVerdictPromptBackfilled(t *testing.T) {
	// Oracle flags a correction but returns no prompt text
	mock := &oracle.MockClient{
		Verdict: &oracle.Verdict{
			Matched:         true,
			TransactionID:   "tx_sb2",
			Confidence:      72,
			NeedsCorrection: true,
		},
	}
	m := newTestMatcher(t, nil, mock)

	result, err := m.Match(context.Background(), ambiguousRequest())
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if !result.NeedsCorrection {
		t.Fatal("verdict's correction flag should survive")
	}
	if !strings.Contains(result.CorrectionPrompt, "Starbucks ($5.05)") {
		t.Errorf("prompt should be built from the referenced candidate, got %q", result.CorrectionPrompt)
	}
	if err := result.Validate(); err != nil {
		t.Errorf("result should be internally consistent: %v", err)
	}
}

func TestMatchWithoutOracleResolvesDeterministically(t *testing.T) {
	m := newTestMatcher(t, nil, nil)

	result, err := m.Match(context.Background(), ambiguousRequest())
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if !result.Matched || result.TransactionID != "tx_sb2" {
		t.Errorf("without an oracle the deterministic winner stands, got %+v", result)
	}
}
