package matcher

import (
	"testing"
	"time"

	"journal-ledger-matcher/internal/models"
	"journal-ledger-matcher/internal/normalizer"

	"github.com/shopspring/decimal"
)

var scoreReference = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func makeEntry(amount string, merchant string) *models.ParsedEntry {
	entry := &models.ParsedEntry{
		Merchant: merchant,
		Category: models.CategoryFoodDelivery,
		Emotion:  models.EmotionNeutral,
	}
	if amount != "" {
		d, _ := decimal.NewFromString(amount)
		entry.Amount = &d
	}
	return entry
}

func makeWorking(t *testing.T, txs ...*models.LedgerTransaction) []*WorkingTransaction {
	t.Helper()
	working := FilterCandidates(txs, 15)
	if len(working) != len(txs) {
		t.Fatalf("expected all %d transactions to survive filtering, got %d", len(txs), len(working))
	}
	return working
}

func TestScoreExactMatchTops(t *testing.T) {
	scorer := NewScorer(nil, nil)
	working := makeWorking(t,
		makeTransaction("tx_uber", "47.23", "Uber Eats", 0),
		makeTransaction("tx_gas", "35.00", "Shell", 2),
	)

	ranking := scorer.Score(makeEntry("47", "Uber Eats"), working, scoreReference)
	if !ranking.HasCandidates() {
		t.Fatal("expected candidates")
	}
	if ranking.Best.Transaction.ID != "tx_uber" {
		t.Fatalf("best = %s, want tx_uber", ranking.Best.Transaction.ID)
	}
	if ranking.Best.AmountScore != 100 {
		t.Errorf("amount within 1%% should score 100, got %f", ranking.Best.AmountScore)
	}
	if ranking.Best.MerchantScore != 100 {
		t.Errorf("identical merchant should score 100, got %f", ranking.Best.MerchantScore)
	}
	if ranking.Best.TotalScore < 90 {
		t.Errorf("total = %f, want >= 90", ranking.Best.TotalScore)
	}
}

func TestScoreAmountExclusion(t *testing.T) {
	scorer := NewScorer(nil, nil)
	working := makeWorking(t,
		makeTransaction("tx_small", "12.50", "Nike Store", 1),
		makeTransaction("tx_other", "8.00", "Corner Deli", 2),
	)

	// $200 against a $12.50 ledger is far beyond every tier
	ranking := scorer.Score(makeEntry("200", "Nike"), working, scoreReference)
	if ranking.HasCandidates() {
		t.Fatalf("all candidates should be hard-excluded, got %d", len(ranking.Candidates))
	}
}

func TestScoreMerchantLadder(t *testing.T) {
	config := DefaultMatchConfig()
	norm := normalizer.New(nil)
	scorer := NewScorer(config, norm)
	index := NewMerchantIndex([]string{
		"uber eats", "blue bottel", "amzaon", "whole foods",
	})

	tests := []struct {
		name     string
		user     string
		merchant string
		want     float64
	}{
		{"identical", "uber eats", "Uber Eats", 100},
		{"containment", "uber", "Uber Eats", config.ContainmentScore},
		{"trigram neighbor", "blue bottle", "Blue Bottel", config.FuzzyNeighborScore},
		{"edit similarity", "amazon", "Amzaon", 40},
		{"unrelated", "target", "Whole Foods", 0},
		{"no guess", "", "Whole Foods", config.NeutralMerchantScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := ""
			if tt.user != "" {
				user = norm.Normalize(tt.user)
			}
			got := scorer.scoreMerchant(user, tt.merchant, index)
			if got != tt.want {
				t.Errorf("scoreMerchant(%q, %q) = %f, want %f", tt.user, tt.merchant, got, tt.want)
			}
		})
	}
}

func TestScoreRecency(t *testing.T) {
	scorer := NewScorer(nil, nil)

	tests := []struct {
		name    string
		daysAgo int
		want    float64
	}{
		{"same day", 0, 100},
		{"a week ago", 7, 93},
		{"a month ago", 30, 70},
		{"ninety days", 90, 10},
		{"ancient", 400, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txTime := scoreReference.AddDate(0, 0, -tt.daysAgo)
			if got := scorer.scoreRecency(txTime, scoreReference); got != tt.want {
				t.Errorf("scoreRecency(%d days) = %f, want %f", tt.daysAgo, got, tt.want)
			}
		})
	}

	// Clock skew: a transaction timestamped after the reference counts as fresh
	if got := scorer.scoreRecency(scoreReference.Add(6*time.Hour), scoreReference); got != 100 {
		t.Errorf("future transaction should score 100, got %f", got)
	}
}

func TestScoreWithoutAmountRenormalizesWeights(t *testing.T) {
	scorer := NewScorer(nil, nil)
	working := makeWorking(t,
		makeTransaction("tx_coffee", "6.40", "Blue Bottle", 0),
	)

	ranking := scorer.Score(makeEntry("", "Blue Bottle"), working, scoreReference)
	if !ranking.HasCandidates() {
		t.Fatal("absent amount must not exclude candidates")
	}

	// Merchant 100 and recency 100 renormalize to a perfect total; the
	// absent amount factor must not drag the score down
	if total := ranking.Best.TotalScore; total < 99.99 || total > 100.01 {
		t.Errorf("total = %f, want 100", total)
	}
}

func TestScoreDeterministicOrdering(t *testing.T) {
	scorer := NewScorer(nil, nil)

	// Identical transactions on the same timestamp differ only by ID
	a := makeTransaction("tx_a", "5.00", "Coffee", 1)
	b := makeTransaction("tx_b", "5.00", "Coffee", 1)

	for i := 0; i < 10; i++ {
		ranking := scorer.Score(makeEntry("5", "Coffee"), makeWorking(t, b, a), scoreReference)
		if ranking.Best.Transaction.ID != "tx_a" {
			t.Fatalf("run %d: best = %s, ties must break by ascending ID", i, ranking.Best.Transaction.ID)
		}
	}
}

func TestScoreMarginSingleCandidate(t *testing.T) {
	scorer := NewScorer(nil, nil)
	working := makeWorking(t, makeTransaction("tx_only", "47.23", "Uber Eats", 0))

	ranking := scorer.Score(makeEntry("47", "Uber Eats"), working, scoreReference)
	if ranking.SecondBest != nil {
		t.Fatal("single candidate should have no runner-up")
	}
	if ranking.Margin() != ranking.Best.TotalScore {
		t.Errorf("single-candidate margin = %f, want the best score %f",
			ranking.Margin(), ranking.Best.TotalScore)
	}
}

func TestRankingTop(t *testing.T) {
	scorer := NewScorer(nil, nil)
	working := makeWorking(t,
		makeTransaction("tx_1", "10.00", "Shop", 1),
		makeTransaction("tx_2", "10.10", "Shop", 2),
		makeTransaction("tx_3", "10.20", "Shop", 3),
	)

	ranking := scorer.Score(makeEntry("10", "Shop"), working, scoreReference)
	if got := len(ranking.Top(2)); got != 2 {
		t.Errorf("Top(2) returned %d candidates", got)
	}
	if got := len(ranking.Top(10)); got != 3 {
		t.Errorf("Top(10) should cap at the candidate count, returned %d", got)
	}
	if ranking.Top(0) != nil {
		t.Error("Top(0) should return nil")
	}
}

func TestScoreSubScoresStayInRange(t *testing.T) {
	scorer := NewScorer(nil, nil)
	working := makeWorking(t,
		makeTransaction("tx_1", "47.23", "Uber Eats", 0),
		makeTransaction("tx_2", "46.00", "Uber, Eats!!", 3),
		makeTransaction("tx_3", "44.00", "Completely Different Shop", 200),
		makeTransaction("tx_4", "47.00", "", 45),
	)

	entries := []*models.ParsedEntry{
		makeEntry("47", "Uber Eats"),
		makeEntry("47", ""),
		makeEntry("", "uber"),
		makeEntry("", ""),
	}

	for _, entry := range entries {
		ranking := scorer.Score(entry, working, scoreReference)
		for _, c := range ranking.Candidates {
			for name, score := range map[string]float64{
				"amount":   c.AmountScore,
				"merchant": c.MerchantScore,
				"recency":  c.RecencyScore,
				"total":    c.TotalScore,
			} {
				if score < 0 || score > 100.01 {
					t.Errorf("entry %s, candidate %s: %s score %f out of range",
						entry, c.Transaction.ID, name, score)
				}
			}
		}
	}
}

func TestRelativeDiffPercent(t *testing.T) {
	tests := []struct {
		tx   string
		user string
		want float64
	}{
		{"47.23", "47", 0.486979},
		{"100", "100", 0},
		{"100", "90", 10},
		{"50", "200", 300},
	}

	for _, tt := range tests {
		txAmount := decimalFromString(t, tt.tx)
		userAmount := decimalFromString(t, tt.user)
		got := relativeDiffPercent(txAmount, userAmount)
		if diff := got - tt.want; diff > 0.001 || diff < -0.001 {
			t.Errorf("relativeDiffPercent(%s, %s) = %f, want %f", tt.tx, tt.user, got, tt.want)
		}
	}
}
