// Package config assembles the runtime configuration of the journalmatch
// CLI: matching presets with flag overrides, merchant alias tables, and the
// optional oracle client.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"journal-ledger-matcher/internal/matcher"
	"journal-ledger-matcher/internal/normalizer"
	"journal-ledger-matcher/internal/oracle"
	"journal-ledger-matcher/pkg/errors"
)

// MatchOverrides carries the CLI flag values that override a preset. Zero
// values mean "keep the preset's setting".
type MatchOverrides struct {
	MaxCandidates       int
	ConfidenceThreshold float64
	MarginThreshold     float64
	OracleTimeout       time.Duration
}

// CreateMatchConfig builds a match configuration from a named preset plus
// CLI overrides
func CreateMatchConfig(preset string, overrides MatchOverrides) (*matcher.MatchConfig, error) {
	var config *matcher.MatchConfig

	switch preset {
	case "", "default":
		config = matcher.DefaultMatchConfig()
	case "strict":
		config = matcher.StrictMatchConfig()
	case "relaxed":
		config = matcher.RelaxedMatchConfig()
	default:
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig, "preset", preset,
			fmt.Errorf("unknown preset %q", preset),
		).WithSuggestion("Valid presets are: default, strict, relaxed")
	}

	if overrides.MaxCandidates > 0 {
		config.MaxCandidates = overrides.MaxCandidates
	}
	if overrides.ConfidenceThreshold > 0 {
		config.ConfidenceThreshold = overrides.ConfidenceThreshold
	}
	if overrides.MarginThreshold > 0 {
		config.MarginThreshold = overrides.MarginThreshold
	}
	if overrides.OracleTimeout > 0 {
		config.OracleTimeout = overrides.OracleTimeout
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig, "match_config", config.String(), err)
	}

	return config, nil
}

// DefaultAliasTable maps household names and abbreviations to the spellings
// ledger exports tend to use
func DefaultAliasTable() normalizer.AliasTable {
	return normalizer.AliasTable{
		"sbux":        "starbucks",
		"mickey d s":  "mcdonald s",
		"mickey ds":   "mcdonald s",
		"amzn":        "amazon",
		"wf":          "whole foods",
		"whole foods market": "whole foods",
		"tj s":        "trader joe s",
		"uber":        "uber eats",
		"doordash":    "door dash",
	}
}

// LoadAliasTable merges a user-supplied JSON alias file over the default
// table. An empty path yields the defaults alone.
func LoadAliasTable(path string) (normalizer.AliasTable, error) {
	table := DefaultAliasTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileNotFound, path, err).
			WithSuggestion("Check that the alias table path is correct")
	}

	var user map[string]string
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path,
			"alias table must be a JSON object of spoken name to ledger name", err)
	}

	for spoken, canonical := range user {
		table[spoken] = canonical
	}

	return table, nil
}

// CreateOracleClient builds the Anthropic-backed oracle from the
// environment. Without an API key the matcher runs deterministically, which
// is a supported mode, not an error.
func CreateOracleClient(model string, timeout time.Duration) (oracle.Client, error) {
	apiKey := os.Getenv("JOURNALMATCH_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, nil
	}

	return oracle.NewAnthropicClient(oracle.Config{
		APIKey:  apiKey,
		Model:   model,
		Timeout: timeout,
	})
}
