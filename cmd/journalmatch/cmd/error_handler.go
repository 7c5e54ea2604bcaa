package cmd

import (
	"fmt"
	"os"

	"journal-ledger-matcher/pkg/errors"
	"journal-ledger-matcher/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler turns command failures into user-facing messages and
// process exit codes
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints a user-friendly message and returns the exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if matcherErr, ok := errors.AsMatcherError(err); ok {
		return h.handleMatcherError(matcherErr)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func (h *CLIErrorHandler) handleMatcherError(err *errors.MatcherError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	if help := h.getCategoryHelp(err.Category); help != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n", help)
	}

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return "Check that the file paths exist and are readable."
	case errors.CategoryParse:
		return "Run with --verbose to see the exact rows or fields that failed."
	case errors.CategoryConfiguration:
		return "Run 'journalmatch match --help' for the valid configuration values."
	case errors.CategoryOracle:
		return "Matching still works without the oracle; unset the API key to skip it."
	default:
		return ""
	}
}
