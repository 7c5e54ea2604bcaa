package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"journal-ledger-matcher/cmd/journalmatch/config"
	"journal-ledger-matcher/internal/matcher"
	"journal-ledger-matcher/internal/normalizer"
	"journal-ledger-matcher/internal/parsers"
	"journal-ledger-matcher/internal/reporter"
	"journal-ledger-matcher/pkg/errors"
	"journal-ledger-matcher/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the match command
var (
	requestFile  string
	ledgerFile   string
	aliasFile    string
	preset       string
	outputFormat string
	outputFile   string

	maxCandidates       int
	confidenceThreshold float64
	marginThreshold     float64

	oracleModel   string
	oracleTimeout time.Duration
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a journal entry against a ledger window",
	Long: `Match resolves one parsed voice-journal entry to at most one ledger
transaction.

The request file is a JSON document carrying the parsed entry, the raw
transcript, an optional entry time, and the transaction window. A ledger CSV
export can be supplied instead of (or in addition to) the request's inline
transactions.

Examples:
  # Match against the transactions inside the request
  journalmatch match --request entry.json

  # Match against a bank CSV export
  journalmatch match --request entry.json --ledger export.csv

  # Stricter thresholds, JSON output
  journalmatch match --request entry.json --preset strict --output-format json

  # Household merchant nicknames
  journalmatch match --request entry.json --aliases aliases.json`,

	PreRunE: validateMatchFlags,
	RunE:    runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVarP(&requestFile, "request", "r", "", "path to match request JSON file (required)")
	matchCmd.Flags().StringVarP(&ledgerFile, "ledger", "l", "", "path to ledger CSV export (replaces the request's transactions)")
	matchCmd.Flags().StringVar(&aliasFile, "aliases", "", "path to merchant alias JSON file")

	matchCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json")
	matchCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	matchCmd.Flags().StringVar(&preset, "preset", "default", "matching preset: default, strict, relaxed")
	matchCmd.Flags().IntVar(&maxCandidates, "max-candidates", 0, "override the candidate window size")
	matchCmd.Flags().Float64Var(&confidenceThreshold, "confidence-threshold", 0, "override the escalation confidence threshold (0-100)")
	matchCmd.Flags().Float64Var(&marginThreshold, "margin-threshold", 0, "override the escalation margin threshold (0-100)")

	matchCmd.Flags().StringVar(&oracleModel, "oracle-model", "", "oracle model name (default from the client)")
	matchCmd.Flags().DurationVar(&oracleTimeout, "oracle-timeout", 0, "oracle attempt timeout")

	matchCmd.MarkFlagRequired("request")

	viper.BindPFlag("request", matchCmd.Flags().Lookup("request"))
	viper.BindPFlag("ledger", matchCmd.Flags().Lookup("ledger"))
	viper.BindPFlag("aliases", matchCmd.Flags().Lookup("aliases"))
	viper.BindPFlag("output-format", matchCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", matchCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("preset", matchCmd.Flags().Lookup("preset"))
	viper.BindPFlag("oracle-model", matchCmd.Flags().Lookup("oracle-model"))
	viper.BindPFlag("oracle-timeout", matchCmd.Flags().Lookup("oracle-timeout"))
}

func validateMatchFlags(cmd *cobra.Command, args []string) error {
	requestFile = viper.GetString("request")
	ledgerFile = viper.GetString("ledger")
	aliasFile = viper.GetString("aliases")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	preset = viper.GetString("preset")
	oracleTimeout = viper.GetDuration("oracle-timeout")

	if requestFile == "" {
		return errors.ValidationError(errors.CodeMissingField, "request", nil, nil).
			WithSuggestion("Pass --request with the path to a match request JSON file")
	}

	if !reporter.OutputFormat(outputFormat).IsValid() {
		return errors.ValidationError(errors.CodeInvalidData, "output-format", outputFormat, nil).
			WithSuggestion("Valid formats are: console, json")
	}

	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	log := logger.GetGlobalLogger().WithComponent("match_command")

	matchConfig, err := config.CreateMatchConfig(preset, config.MatchOverrides{
		MaxCandidates:       maxCandidates,
		ConfidenceThreshold: confidenceThreshold,
		MarginThreshold:     marginThreshold,
		OracleTimeout:       oracleTimeout,
	})
	if err != nil {
		return err
	}

	aliases, err := config.LoadAliasTable(aliasFile)
	if err != nil {
		return err
	}

	oracleClient, err := config.CreateOracleClient(viper.GetString("oracle-model"), matchConfig.OracleTimeout)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOracle, errors.CodeInvalidConfig,
			"failed to initialize the disambiguation oracle")
	}
	if oracleClient == nil {
		log.Debug("No oracle API key configured, matching deterministically")
	}

	m, err := matcher.New(matchConfig, normalizer.New(aliases), oracleClient, log)
	if err != nil {
		return err
	}

	request, entryTime, err := parsers.ParseMatchRequestFile(requestFile)
	if err != nil {
		return err
	}

	transactions := request.Transactions
	if ledgerFile != "" {
		ledgerParser, err := parsers.NewLedgerParser(nil)
		if err != nil {
			return err
		}
		transactions, _, err = ledgerParser.ParseFile(ledgerFile)
		if err != nil {
			return err
		}
	}

	result, err := m.Match(context.Background(), matcher.MatchRequest{
		Entry:        request.ParsedEntry,
		Transcript:   request.Transcript,
		EntryTime:    entryTime,
		Transactions: transactions,
	})
	if err != nil {
		return err
	}

	return renderTo(outputFile, func(w io.Writer) error {
		return reporter.New(w).Render(result, reporter.OutputFormat(outputFormat))
	})
}

// renderTo runs render against stdout or the given file path
func renderTo(path string, render func(io.Writer) error) error {
	if path == "" {
		return render(os.Stdout)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, path, err).
			WithSuggestion("Check that the output path is writable")
	}
	defer file.Close()

	if err := render(file); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Result written to %s\n", path)
	return nil
}
