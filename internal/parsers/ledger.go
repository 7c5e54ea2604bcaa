// Package parsers loads match inputs from files: ledger exports in CSV form
// and full match requests in JSON form.
//
// Ledger exports come from different banks and aggregators, so the CSV parser
// resolves columns through an alias table rather than fixed positions, and
// keeps going past bad rows: a ledger row that cannot be parsed is skipped
// and counted, never fatal. The matching stage applies its own stricter
// filtering afterwards.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"journal-ledger-matcher/internal/models"
	"journal-ledger-matcher/pkg/errors"
	"journal-ledger-matcher/pkg/logger"
)

// LedgerParserConfig controls how a ledger CSV export is interpreted
type LedgerParserConfig struct {
	Delimiter rune

	// ColumnAliases maps each logical field to the header names that may
	// carry it, checked in order, case-insensitively
	ColumnAliases map[string][]string
}

// Logical ledger fields resolved through the alias table
const (
	fieldID       = "id"
	fieldAmount   = "amount"
	fieldMerchant = "merchant"
	fieldCategory = "category"
	fieldDate     = "date"
	fieldTime     = "time"
)

// DefaultLedgerParserConfig covers the header vocabularies of common bank
// and aggregator exports
func DefaultLedgerParserConfig() *LedgerParserConfig {
	return &LedgerParserConfig{
		Delimiter: ',',
		ColumnAliases: map[string][]string{
			fieldID:       {"id", "transaction_id", "txid", "reference"},
			fieldAmount:   {"amount", "value", "amt"},
			fieldMerchant: {"merchant", "description", "payee", "name"},
			fieldCategory: {"category", "type"},
			fieldDate:     {"date", "timestamp", "posted_at", "transaction_date"},
			fieldTime:     {"time", "transaction_time"},
		},
	}
}

// Validate checks the parser configuration
func (c *LedgerParserConfig) Validate() error {
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter is required")
	}

	for _, field := range []string{fieldID, fieldAmount, fieldMerchant, fieldDate} {
		if len(c.ColumnAliases[field]) == 0 {
			return fmt.Errorf("column aliases for %q are required", field)
		}
	}

	return nil
}

// ParseStats summarizes one parsing run
type ParseStats struct {
	TotalRows   int
	ParsedRows  int
	SkippedRows int
	RowErrors   []error
}

// LedgerParser parses ledger CSV exports into transactions
type LedgerParser struct {
	config *LedgerParserConfig
	logger logger.Logger
}

// NewLedgerParser creates a ledger parser. A nil config uses
// DefaultLedgerParserConfig.
func NewLedgerParser(config *LedgerParserConfig) (*LedgerParser, error) {
	if config == nil {
		config = DefaultLedgerParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"ledger_parser_config",
			nil,
			err,
		).WithSuggestion("Check the ledger parser column aliases and delimiter")
	}

	return &LedgerParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("ledger_parser"),
	}, nil
}

// ParseFile parses a ledger CSV export from disk
func (lp *LedgerParser) ParseFile(path string) ([]*models.LedgerTransaction, *ParseStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.FileError(errors.CodeFileNotFound, path, err).
			WithSuggestion("Check that the ledger export path is correct")
	}
	defer file.Close()

	transactions, stats, err := lp.Parse(file)
	if err != nil {
		return nil, stats, errors.WrapIfNeeded(err, errors.CategoryParse, errors.CodeInvalidFormat,
			fmt.Sprintf("failed to parse ledger export %s", path))
	}

	lp.logger.WithFields(logger.Fields{
		"file_path": path,
		"parsed":    stats.ParsedRows,
		"skipped":   stats.SkippedRows,
	}).Info("Parsed ledger export")

	return transactions, stats, nil
}

// Parse parses a ledger CSV export from a reader. The first row must be a
// header row; its columns are resolved through the alias table.
func (lp *LedgerParser) Parse(r io.Reader) ([]*models.LedgerTransaction, *ParseStats, error) {
	reader := csv.NewReader(r)
	reader.Comma = lp.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, errors.ParseError(errors.CodeInvalidFormat, "ledger", "file is empty", err)
		}
		return nil, nil, errors.ParseError(errors.CodeInvalidFormat, "ledger", "failed to read header", err)
	}

	columns, err := lp.resolveColumns(header)
	if err != nil {
		return nil, nil, err
	}

	stats := &ParseStats{}
	var transactions []*models.LedgerTransaction

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.TotalRows++
			stats.SkippedRows++
			stats.RowErrors = append(stats.RowErrors, err)
			continue
		}

		stats.TotalRows++

		tx, err := lp.parseRecord(record, columns)
		if err != nil {
			stats.SkippedRows++
			stats.RowErrors = append(stats.RowErrors, fmt.Errorf("row %d: %w", stats.TotalRows, err))
			lp.logger.WithError(err).WithField("row", stats.TotalRows).Debug("Skipping unparsable ledger row")
			continue
		}

		stats.ParsedRows++
		transactions = append(transactions, tx)
	}

	return transactions, stats, nil
}

// resolveColumns maps logical fields to header positions through the alias
// table. ID, merchant, and date are required; the rest are optional.
func (lp *LedgerParser) resolveColumns(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.ToLower(strings.TrimSpace(name))] = i
	}

	columns := make(map[string]int)
	for field, aliases := range lp.config.ColumnAliases {
		for _, alias := range aliases {
			if i, ok := positions[alias]; ok {
				columns[field] = i
				break
			}
		}
	}

	for _, field := range []string{fieldID, fieldMerchant, fieldDate} {
		if _, ok := columns[field]; !ok {
			return nil, errors.ParseError(errors.CodeMissingColumn, "ledger", field, nil).
				WithContext("accepted_aliases", lp.config.ColumnAliases[field])
		}
	}

	return columns, nil
}

func (lp *LedgerParser) parseRecord(record []string, columns map[string]int) (*models.LedgerTransaction, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	id := field(fieldID)
	if id == "" {
		return nil, fmt.Errorf("missing transaction ID")
	}

	merchant := field(fieldMerchant)
	if merchant == "" {
		return nil, fmt.Errorf("missing merchant")
	}

	timestamp, err := models.CombineDateTime(field(fieldDate), field(fieldTime))
	if err != nil {
		return nil, fmt.Errorf("bad timestamp: %w", err)
	}

	// The amount is carried raw; candidate filtering decides whether it is
	// usable as a number
	return &models.LedgerTransaction{
		ID:        id,
		Amount:    field(fieldAmount),
		Merchant:  merchant,
		Category:  models.ParseCategory(field(fieldCategory)),
		Timestamp: timestamp,
	}, nil
}
