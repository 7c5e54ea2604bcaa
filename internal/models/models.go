package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category represents the spending category assigned to an entry or transaction
type Category string

const (
	CategoryFoodDelivery  Category = "food_delivery"
	CategoryCoffee        Category = "coffee"
	CategoryAlcohol       Category = "alcohol"
	CategoryDiningOut     Category = "dining_out"
	CategoryGroceries     Category = "groceries"
	CategoryShopping      Category = "shopping"
	CategoryTransport     Category = "transport"
	CategoryEntertainment Category = "entertainment"
	CategorySubscriptions Category = "subscriptions"
	CategoryBills         Category = "bills"
	CategorySnacks        Category = "snacks"
	CategoryHealth        Category = "health"
	CategoryOther         Category = "other"
)

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// IsValid checks if the category is one of the known values
func (c Category) IsValid() bool {
	switch c {
	case CategoryFoodDelivery, CategoryCoffee, CategoryAlcohol, CategoryDiningOut,
		CategoryGroceries, CategoryShopping, CategoryTransport, CategoryEntertainment,
		CategorySubscriptions, CategoryBills, CategorySnacks, CategoryHealth, CategoryOther:
		return true
	default:
		return false
	}
}

// ParseCategory parses a category from string, mapping unknown values to CategoryOther
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.IsValid() {
		return c
	}
	return CategoryOther
}

// Emotion represents the emotional label attached to a journal entry
type Emotion string

const (
	EmotionNeutral      Emotion = "neutral"
	EmotionHappy        Emotion = "happy"
	EmotionRegret       Emotion = "regret"
	EmotionGuilt        Emotion = "guilt"
	EmotionJustified    Emotion = "justified"
	EmotionImpulsive    Emotion = "impulsive"
	EmotionStressed     Emotion = "stressed"
	EmotionCelebratory  Emotion = "celebratory"
	EmotionSelfCritical Emotion = "self-critical"
	EmotionAnxious      Emotion = "anxious"
	EmotionRelieved     Emotion = "relieved"
	EmotionPositive     Emotion = "positive"
)

// String returns the string representation of Emotion
func (e Emotion) String() string {
	return string(e)
}

// IsValid checks if the emotion is one of the known values
func (e Emotion) IsValid() bool {
	switch e {
	case EmotionNeutral, EmotionHappy, EmotionRegret, EmotionGuilt, EmotionJustified,
		EmotionImpulsive, EmotionStressed, EmotionCelebratory, EmotionSelfCritical,
		EmotionAnxious, EmotionRelieved, EmotionPositive:
		return true
	default:
		return false
	}
}

// ParseEmotion parses an emotion from string, mapping unknown values to EmotionNeutral
func ParseEmotion(s string) Emotion {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	if e.IsValid() {
		return e
	}
	return EmotionNeutral
}

// ParsedEntry is the structured extraction of a user's free-text spending
// recollection. It is produced by an external parser and read-only to the
// matcher. Amount and Merchant may both be absent: users frequently report
// only one of them, or neither.
type ParsedEntry struct {
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Merchant string           `json:"merchant,omitempty"`
	Category Category         `json:"category"`
	Emotion  Emotion          `json:"emotion"`
	Context  string           `json:"context,omitempty"`
}

// HasAmount reports whether the entry carries a usable amount estimate
func (pe *ParsedEntry) HasAmount() bool {
	return pe.Amount != nil
}

// HasMerchant reports whether the entry carries a merchant guess
func (pe *ParsedEntry) HasMerchant() bool {
	return strings.TrimSpace(pe.Merchant) != ""
}

// String returns a string representation of the ParsedEntry
func (pe *ParsedEntry) String() string {
	amount := "unknown"
	if pe.Amount != nil {
		amount = pe.Amount.String()
	}
	return fmt.Sprintf("ParsedEntry{Amount: %s, Merchant: %q, Category: %s, Emotion: %s}",
		amount, pe.Merchant, pe.Category, pe.Emotion)
}

// UnmarshalJSON implements lenient JSON unmarshaling for ParsedEntry.
// Upstream parsers emit the amount as a JSON number, a quoted string, or null.
func (pe *ParsedEntry) UnmarshalJSON(data []byte) error {
	aux := struct {
		Amount   json.RawMessage `json:"amount"`
		Merchant string          `json:"merchant"`
		Category string          `json:"category"`
		Emotion  string          `json:"emotion"`
		Context  string          `json:"context"`
	}{}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	pe.Merchant = strings.TrimSpace(aux.Merchant)
	pe.Category = ParseCategory(aux.Category)
	pe.Emotion = ParseEmotion(aux.Emotion)
	pe.Context = aux.Context

	pe.Amount = nil
	if len(aux.Amount) > 0 && string(aux.Amount) != "null" {
		raw := strings.Trim(string(aux.Amount), `"`)
		if amount, err := ParseDecimalFromString(raw); err == nil {
			pe.Amount = &amount
		}
	}

	return nil
}

// LedgerTransaction is an authoritative record of an actual financial
// transaction, supplied per call as an immutable snapshot. The amount is kept
// as the raw string it arrived with: deciding whether it parses as a number is
// the candidate filter's job, not a deserialization failure.
type LedgerTransaction struct {
	ID        string
	Amount    string
	Merchant  string
	Category  Category
	Timestamp time.Time
}

// NewLedgerTransaction creates a new LedgerTransaction instance
func NewLedgerTransaction(id, amount, merchant string, category Category, ts time.Time) *LedgerTransaction {
	return &LedgerTransaction{
		ID:        id,
		Amount:    amount,
		Merchant:  merchant,
		Category:  category,
		Timestamp: ts,
	}
}

// Validate performs basic validation on the LedgerTransaction
func (lt *LedgerTransaction) Validate() error {
	if strings.TrimSpace(lt.ID) == "" {
		return fmt.Errorf("transaction ID cannot be empty")
	}

	if strings.TrimSpace(lt.Amount) == "" {
		return fmt.Errorf("transaction amount cannot be empty")
	}

	if lt.Timestamp.IsZero() {
		return fmt.Errorf("transaction timestamp cannot be zero")
	}

	return nil
}

// AmountDecimal parses the raw amount into a decimal value
func (lt *LedgerTransaction) AmountDecimal() (decimal.Decimal, error) {
	return ParseDecimalFromString(lt.Amount)
}

// String returns a string representation of the LedgerTransaction
func (lt *LedgerTransaction) String() string {
	return fmt.Sprintf("LedgerTransaction{ID: %s, Amount: %s, Merchant: %q, Time: %s}",
		lt.ID, lt.Amount, lt.Merchant, lt.Timestamp.Format(time.RFC3339))
}

// MarshalJSON implements custom JSON marshaling for LedgerTransaction
func (lt *LedgerTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		ID       string `json:"id"`
		Amount   string `json:"amount"`
		Merchant string `json:"merchant"`
		Category string `json:"category"`
		Date     string `json:"date"`
	}{
		ID:       lt.ID,
		Amount:   lt.Amount,
		Merchant: lt.Merchant,
		Category: lt.Category.String(),
		Date:     lt.Timestamp.Format(time.RFC3339),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for LedgerTransaction.
// Snapshots carry either a combined date field or separate date and time
// fields; amounts arrive as JSON numbers or strings and are kept raw.
func (lt *LedgerTransaction) UnmarshalJSON(data []byte) error {
	aux := struct {
		ID       string          `json:"id"`
		Amount   json.RawMessage `json:"amount"`
		Merchant string          `json:"merchant"`
		Category string          `json:"category"`
		Date     string          `json:"date"`
		Time     string          `json:"time"`
	}{}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	lt.ID = strings.TrimSpace(aux.ID)
	lt.Amount = strings.Trim(string(aux.Amount), `"`)
	lt.Merchant = strings.TrimSpace(aux.Merchant)
	lt.Category = ParseCategory(aux.Category)

	ts, err := CombineDateTime(aux.Date, aux.Time)
	if err != nil {
		return fmt.Errorf("invalid transaction date: %w", err)
	}
	lt.Timestamp = ts

	return nil
}

// Equals compares two LedgerTransaction instances for equality
func (lt *LedgerTransaction) Equals(other *LedgerTransaction) bool {
	if other == nil {
		return false
	}

	return lt.ID == other.ID &&
		lt.Amount == other.Amount &&
		lt.Merchant == other.Merchant &&
		lt.Category == other.Category &&
		lt.Timestamp.Equal(other.Timestamp)
}

// MatchResult is the flat decision object returned to callers. TransactionID
// is present iff Matched; CorrectionPrompt is present iff NeedsCorrection;
// SkepticalMessage is present iff the matcher declined to propose anything.
type MatchResult struct {
	Matched          bool   `json:"matched"`
	TransactionID    string `json:"transaction_id,omitempty"`
	Confidence       int    `json:"confidence"`
	NeedsCorrection  bool   `json:"needs_correction"`
	CorrectionPrompt string `json:"correction_prompt,omitempty"`
	SkepticalMessage string `json:"skeptical_message,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// Validate checks the internal consistency of the MatchResult
func (mr *MatchResult) Validate() error {
	if mr.Matched && strings.TrimSpace(mr.TransactionID) == "" {
		return fmt.Errorf("matched result must carry a transaction ID")
	}

	if !mr.Matched && mr.TransactionID != "" {
		return fmt.Errorf("unmatched result cannot carry a transaction ID")
	}

	if mr.Confidence < 0 || mr.Confidence > 100 {
		return fmt.Errorf("confidence must be between 0 and 100: %d", mr.Confidence)
	}

	if mr.NeedsCorrection && strings.TrimSpace(mr.CorrectionPrompt) == "" {
		return fmt.Errorf("correction prompt is required when correction is needed")
	}

	if !mr.NeedsCorrection && mr.CorrectionPrompt != "" {
		return fmt.Errorf("correction prompt present without needs_correction")
	}

	return nil
}

// String returns a string representation of the MatchResult
func (mr *MatchResult) String() string {
	return fmt.Sprintf("MatchResult{Matched: %t, TransactionID: %s, Confidence: %d, NeedsCorrection: %t}",
		mr.Matched, mr.TransactionID, mr.Confidence, mr.NeedsCorrection)
}

// Utility functions for type conversion and validation

// ParseDecimalFromString parses a decimal value from string with validation
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Remove common currency symbols and thousand separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseTimeWithFormats attempts to parse time from string using multiple common formats
func ParseTimeWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}

	// Common timestamp formats used by ledger exports
	formats := []string{
		time.RFC3339,          // "2006-01-02T15:04:05Z07:00"
		"2006-01-02T15:04:05", // "2006-01-02T15:04:05"
		"2006-01-02 15:04:05", // "2006-01-02 15:04:05"
		"2006-01-02",          // "2006-01-02"
		"01/02/2006 15:04:05", // "01/02/2006 15:04:05"
		"01/02/2006",          // "01/02/2006"
		"Jan 2, 2006",         // "Jan 2, 2006"
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time '%s': %w", s, lastErr)
}

// CombineDateTime combines separate date and time strings into one timestamp.
// An empty time component yields midnight on the given date.
func CombineDateTime(date, timeOfDay string) (time.Time, error) {
	date = strings.TrimSpace(date)
	timeOfDay = strings.TrimSpace(timeOfDay)

	if date == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	if timeOfDay == "" {
		return ParseTimeWithFormats(date)
	}

	combined := date + " " + timeOfDay
	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"01/02/2006 15:04:05",
		"01/02/2006 15:04",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, combined); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	// Fall back to the date alone when the time component is junk
	if t, err := ParseTimeWithFormats(date); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s' with time '%s': %w", date, timeOfDay, lastErr)
}
