// Package reporter renders match results for the CLI: a human-readable
// console view and a JSON view for programmatic consumers.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"journal-ledger-matcher/internal/models"
	"journal-ledger-matcher/internal/workflow"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON:
		return true
	default:
		return false
	}
}

// Reporter renders match results to a writer
type Reporter struct {
	out io.Writer
}

// New creates a reporter writing to out
func New(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Render writes the result in the requested format
func (r *Reporter) Render(result *models.MatchResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return r.renderJSON(result)
	case FormatConsole:
		return r.renderConsole(result)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func (r *Reporter) renderJSON(result *models.MatchResult) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func (r *Reporter) renderConsole(result *models.MatchResult) error {
	var b strings.Builder

	b.WriteString("Match Result\n")
	b.WriteString(strings.Repeat("=", 40) + "\n")

	outcome := workflow.OutcomeFor(result)
	fmt.Fprintf(&b, "Outcome:     %s\n", outcome)

	if result.Matched {
		fmt.Fprintf(&b, "Transaction: %s\n", result.TransactionID)
	}
	fmt.Fprintf(&b, "Confidence:  %d\n", result.Confidence)

	if result.Reason != "" {
		fmt.Fprintf(&b, "Reason:      %s\n", result.Reason)
	}

	if result.NeedsCorrection {
		b.WriteString("\n" + result.CorrectionPrompt + "\n")
	}
	if result.SkepticalMessage != "" {
		b.WriteString("\n" + result.SkepticalMessage + "\n")
	}

	_, err := io.WriteString(r.out, b.String())
	return err
}

// RenderConfirmation writes a confirmed link in the requested format
func (r *Reporter) RenderConfirmation(link *workflow.ConfirmedLink, format OutputFormat) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(r.out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(link)
	case FormatConsole:
		var b strings.Builder
		b.WriteString("Confirmed Link\n")
		b.WriteString(strings.Repeat("=", 40) + "\n")
		fmt.Fprintf(&b, "Transaction: %s\n", link.TransactionID)
		fmt.Fprintf(&b, "Merchant:    %s\n", link.Merchant)
		fmt.Fprintf(&b, "Amount:      $%s\n", link.Amount.StringFixed(2))
		fmt.Fprintf(&b, "Category:    %s\n", link.Category)
		fmt.Fprintf(&b, "Emotion:     %s\n", link.Emotion)
		_, err := io.WriteString(r.out, b.String())
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// RenderRejection writes a rejected proposal in the requested format
func (r *Reporter) RenderRejection(rejected *workflow.RejectedEntry, format OutputFormat) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(r.out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rejected)
	case FormatConsole:
		var b strings.Builder
		b.WriteString("Proposal rejected; the entry stays unlinked.\n")
		if rejected.Entry.Merchant != "" {
			fmt.Fprintf(&b, "Kept as told: %s\n", rejected.Entry.Merchant)
		}
		_, err := io.WriteString(r.out, b.String())
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
