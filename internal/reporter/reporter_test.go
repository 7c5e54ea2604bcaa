package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"journal-ledger-matcher/internal/models"
	"journal-ledger-matcher/internal/workflow"

	"github.com/shopspring/decimal"
)

func pendingResult() *models.MatchResult {
	tx := &models.LedgerTransaction{
		ID:        "tx_042",
		Amount:    "70.04",
		Merchant:  "Whole Foods",
		Category:  models.CategoryGroceries,
		Timestamp: time.Date(2026, 8, 20, 18, 12, 0, 0, time.UTC),
	}
	return workflow.PendingConfirmation(tx, decimal.NewFromFloat(70.04), 74, "merchant mismatch")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	if err := r.Render(pendingResult(), FormatJSON); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	var decoded models.MatchResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.TransactionID != "tx_042" || !decoded.NeedsCorrection {
		t.Errorf("round-tripped result lost fields: %+v", decoded)
	}
}

func TestRenderConsolePending(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	if err := r.Render(pendingResult(), FormatConsole); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"PendingConfirmation", "tx_042", "Did you mean Whole Foods ($70.04)"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderConsoleNoMatch(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	if err := r.Render(workflow.NoMatch("nothing plausible"), FormatConsole); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "NoMatch") || !strings.Contains(out, workflow.SkepticalMessage) {
		t.Errorf("console output missing the skeptical message:\n%s", out)
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	r := New(&bytes.Buffer{})
	if err := r.Render(pendingResult(), OutputFormat("xml")); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
	if OutputFormat("xml").IsValid() {
		t.Error("xml should not be a valid format")
	}
	if !FormatJSON.IsValid() || !FormatConsole.IsValid() {
		t.Error("built-in formats should be valid")
	}
}
