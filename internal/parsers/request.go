package parsers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"journal-ledger-matcher/internal/models"
	"journal-ledger-matcher/pkg/errors"
)

// MatchRequestFile is the JSON shape of a full match request: the parsed
// voice entry, the raw transcript it came from, an optional entry time, and
// the ledger window to match against.
type MatchRequestFile struct {
	ParsedEntry  *models.ParsedEntry         `json:"parsedEntry"`
	Transcript   string                      `json:"transcript"`
	EntryTime    string                      `json:"entryTime,omitempty"`
	Transactions []*models.LedgerTransaction `json:"transactions"`
}

// ParseMatchRequestFile loads a match request from disk
func ParseMatchRequestFile(path string) (*MatchRequestFile, time.Time, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, time.Time{}, errors.FileError(errors.CodeFileNotFound, path, err).
			WithSuggestion("Check that the request path is correct")
	}
	defer file.Close()

	return ParseMatchRequest(file)
}

// ParseMatchRequest decodes a match request. The returned time is the parsed
// entry time, or zero when the request carries none; callers decide the
// fallback.
func ParseMatchRequest(r io.Reader) (*MatchRequestFile, time.Time, error) {
	var request MatchRequestFile

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&request); err != nil {
		return nil, time.Time{}, errors.ParseError(
			errors.CodeInvalidFormat, "match request", "not valid JSON", err)
	}

	if err := request.Validate(); err != nil {
		return nil, time.Time{}, err
	}

	entryTime := time.Time{}
	if strings.TrimSpace(request.EntryTime) != "" {
		parsed, err := models.ParseTimeWithFormats(request.EntryTime)
		if err != nil {
			return nil, time.Time{}, errors.ParseError(
				errors.CodeInvalidData, "match request",
				fmt.Sprintf("entryTime %q is not a recognized timestamp", request.EntryTime), err)
		}
		entryTime = parsed
	}

	return &request, entryTime, nil
}

// Validate checks the structural requirements of a request. An empty
// transaction list is allowed; it simply yields a no-match.
func (mr *MatchRequestFile) Validate() error {
	if mr.ParsedEntry == nil {
		return errors.ValidationError(errors.CodeMissingField, "parsedEntry", nil, nil).
			WithSuggestion("The request must carry the parsed voice entry")
	}

	// Only structural identity is enforced here; malformed amounts are a
	// matching concern and degrade to candidate drops, not request errors
	for i, tx := range mr.Transactions {
		if tx == nil {
			return errors.ValidationError(errors.CodeInvalidData, "transactions", i,
				fmt.Errorf("transaction at index %d is null", i))
		}
		if strings.TrimSpace(tx.ID) == "" {
			return errors.ValidationError(errors.CodeMissingField, "transactions", i,
				fmt.Errorf("transaction at index %d has no ID", i))
		}
		if tx.Timestamp.IsZero() {
			return errors.ValidationError(errors.CodeInvalidDate, tx.ID, nil,
				fmt.Errorf("transaction %s has no usable timestamp", tx.ID))
		}
	}

	return nil
}
