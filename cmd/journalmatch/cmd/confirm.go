package cmd

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"journal-ledger-matcher/internal/models"
	"journal-ledger-matcher/internal/parsers"
	"journal-ledger-matcher/internal/reporter"
	"journal-ledger-matcher/internal/workflow"
	"journal-ledger-matcher/pkg/errors"

	"github.com/spf13/cobra"
)

// Flags for the confirm command
var (
	resultFile     string
	confirmRequest string
	answer         string
	confirmFormat  string
	confirmOutput  string
)

// confirmCmd represents the confirm command
var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Apply the user's answer to a pending match proposal",
	Long: `Confirm applies a yes/no answer to a match result that is awaiting
confirmation.

On "yes" the entry is linked to the proposed transaction and adopts the
ledger's merchant spelling. On "no" the proposal is discarded and the entry
is kept unlinked with the user's own wording.

Examples:
  journalmatch confirm --result result.json --request entry.json --answer yes
  journalmatch confirm --result result.json --request entry.json --answer no -f json`,

	PreRunE: validateConfirmFlags,
	RunE:    runConfirm,
}

func init() {
	rootCmd.AddCommand(confirmCmd)

	confirmCmd.Flags().StringVar(&resultFile, "result", "", "path to the pending match result JSON (required)")
	confirmCmd.Flags().StringVar(&confirmRequest, "request", "", "path to the original match request JSON (required)")
	confirmCmd.Flags().StringVar(&answer, "answer", "", "the user's answer: yes or no (required)")
	confirmCmd.Flags().StringVarP(&confirmFormat, "output-format", "f", "console", "output format: console, json")
	confirmCmd.Flags().StringVarP(&confirmOutput, "output-file", "o", "", "output file path (default: stdout)")

	confirmCmd.MarkFlagRequired("result")
	confirmCmd.MarkFlagRequired("request")
	confirmCmd.MarkFlagRequired("answer")
}

func validateConfirmFlags(cmd *cobra.Command, args []string) error {
	switch strings.ToLower(answer) {
	case "yes", "y", "no", "n":
	default:
		return errors.ValidationError(errors.CodeInvalidData, "answer", answer, nil).
			WithSuggestion("The answer must be yes or no")
	}

	if !reporter.OutputFormat(confirmFormat).IsValid() {
		return errors.ValidationError(errors.CodeInvalidData, "output-format", confirmFormat, nil).
			WithSuggestion("Valid formats are: console, json")
	}

	return nil
}

func runConfirm(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	result, err := loadMatchResult(resultFile)
	if err != nil {
		return err
	}

	request, _, err := parsers.ParseMatchRequestFile(confirmRequest)
	if err != nil {
		return err
	}

	confirmed := strings.HasPrefix(strings.ToLower(answer), "y")
	format := reporter.OutputFormat(confirmFormat)

	if !confirmed {
		rejected, err := workflow.Reject(result, request.ParsedEntry)
		if err != nil {
			return errors.Wrap(err, errors.CategoryValidation, errors.CodeInvalidRequest,
				"cannot reject this result")
		}
		return renderTo(confirmOutput, func(w io.Writer) error {
			return reporter.New(w).RenderRejection(rejected, format)
		})
	}

	tx := findTransaction(request.Transactions, result.TransactionID)
	if tx == nil {
		return errors.ValidationError(errors.CodeInvalidRequest, "transaction_id", result.TransactionID,
			nil).WithSuggestion("The request file must contain the proposed transaction")
	}

	link, err := workflow.Confirm(result, tx, request.ParsedEntry)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, errors.CodeInvalidRequest,
			"cannot confirm this result")
	}

	return renderTo(confirmOutput, func(w io.Writer) error {
		return reporter.New(w).RenderConfirmation(link, format)
	})
}

func loadMatchResult(path string) (*models.MatchResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileNotFound, path, err).
			WithSuggestion("Check that the result path is correct")
	}
	defer file.Close()

	var result models.MatchResult
	if err := json.NewDecoder(file).Decode(&result); err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, "not a valid match result", err)
	}

	if err := result.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidData, "result", nil, err)
	}

	return &result, nil
}

func findTransaction(transactions []*models.LedgerTransaction, id string) *models.LedgerTransaction {
	for _, tx := range transactions {
		if tx.ID == id {
			return tx
		}
	}
	return nil
}
