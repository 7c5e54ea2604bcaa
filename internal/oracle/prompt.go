package oracle

import (
	"fmt"
	"strings"
	"time"
)

// buildPrompt renders the disambiguation request: the user's claim, the
// ranked candidates, and a strict rule set. The rules deliberately bias
// toward correction prompts — a wrong auto-link corrupts the user's history,
// a confirmation question merely costs a tap.
func buildPrompt(claim UserClaim, candidates []Candidate) string {
	var b strings.Builder

	b.WriteString("You are resolving an ambiguous match between a spending journal entry and bank transactions.\n\n")

	b.WriteString("Journal entry:\n")
	fmt.Fprintf(&b, "- Transcript: %q\n", claim.Transcript)
	fmt.Fprintf(&b, "- Stated merchant: %s\n", orUnknown(claim.Merchant))

	amount := "unknown"
	if claim.Amount != nil {
		amount = "$" + claim.Amount.StringFixed(2)
	}
	fmt.Fprintf(&b, "- Stated amount: %s\n", amount)
	fmt.Fprintf(&b, "- Category: %s\n", claim.Category)
	if !claim.EntryTime.IsZero() {
		fmt.Fprintf(&b, "- Entry time: %s\n", claim.EntryTime.Format(time.RFC3339))
	}

	b.WriteString("\nCandidate transactions (best deterministic score first):\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s: $%s at %s on %s (score %.1f)\n",
			c.ID, c.Amount.StringFixed(2), c.Merchant, c.Date.Format("2006-01-02"), c.Score)
	}

	b.WriteString(`
Rules, applied strictly:
1. Pick at most one candidate. If none plausibly matches, return matched=false.
2. If the chosen candidate's merchant name differs from the stated merchant,
   or its amount differs from the stated amount by more than 1%, you MUST set
   needs_correction=true with a correction_prompt asking the user to confirm.
3. Only an exact merchant AND amount-within-1% match may have
   needs_correction=false.
4. transaction_id must be one of the candidate IDs above, exactly as written.

Return ONLY valid JSON, no markdown, no code blocks:
{
  "matched": true or false,
  "transaction_id": "tx_xxx" or "",
  "confidence": 0-100,
  "needs_correction": true or false,
  "correction_prompt": "question for the user, or empty",
  "reason": "brief explanation"
}`)

	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
