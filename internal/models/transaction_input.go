package models

import (
	"bytes"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"
)

const (
	MinFingerprintIDLen = 10
	MaxFingerprintIDLen = 100

	// MaxFutureSkew bounds how far ahead of server time an event may be stamped.
	MaxFutureSkew = 24 * time.Hour

	// epochMillisThreshold separates epoch seconds from epoch milliseconds:
	// 1e12 seconds is tens of thousands of years away.
	epochMillisThreshold = 1e12
)

var (
	walletAddressPattern   = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	txHashPattern          = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	fingerprintHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

func init() {
	validate.AddValidator("isWalletAddress", func(val any) bool {
		s, ok := val.(string)
		return ok && walletAddressPattern.MatchString(s)
	})
	validate.AddValidator("isTxHash", func(val any) bool {
		s, ok := val.(string)
		return ok && txHashPattern.MatchString(s)
	})
	validate.AddValidator("isFingerprintHash", func(val any) bool {
		s, ok := val.(string)
		return ok && fingerprintHashPattern.MatchString(s)
	})
}

// EventTime is the optional event timestamp of a record request. It accepts an
// ISO-8601 string or a Unix epoch number (seconds, or milliseconds when the
// value is at least 1e12). Wrong JSON types are flagged instead of failing the
// whole body, so the caller gets a field-level message.
type EventTime struct {
	Time    time.Time
	Set     bool
	Invalid bool
}

// maxEventTime is the last instant a stored timestamp can be encoded as.
var maxEventTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

var eventTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (et *EventTime) UnmarshalJSON(data []byte) error {
	*et = EventTime{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	et.Set = true

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		for _, layout := range eventTimeLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
				et.Time = t.UTC()
				return nil
			}
		}
		et.Invalid = true
		return nil
	}

	var n float64
	if err := json.Unmarshal(trimmed, &n); err == nil && n >= 0 && !math.IsInf(n, 0) && !math.IsNaN(n) {
		switch {
		case n >= epochMillisThreshold && n <= float64(maxEventTime.UnixMilli()):
			et.Time = time.UnixMilli(int64(n)).UTC()
			return nil
		case n < epochMillisThreshold && n <= float64(maxEventTime.Unix()):
			sec, frac := math.Modf(n)
			et.Time = time.Unix(int64(sec), int64(frac*1e9)).UTC()
			return nil
		}
	}

	et.Invalid = true
	return nil
}

func (et EventTime) MarshalJSON() ([]byte, error) {
	if !et.Set || et.Invalid {
		return []byte("null"), nil
	}
	return json.Marshal(et.Time)
}

// RecordTransactionInput is the body of a record-transaction request.
type RecordTransactionInput struct {
	FingerprintID     string    `json:"fingerprintId" validate:"required|min_len:10|max_len:100"`
	WalletAddress     string    `json:"walletAddress" validate:"required|isWalletAddress"`
	TransactionHash   string    `json:"transactionHash" validate:"required|isTxHash"`
	HashedFingerprint string    `json:"hashedFingerprint" validate:"required|isFingerprintHash"`
	Timestamp         EventTime `json:"timestamp"`
}

func (in RecordTransactionInput) Messages() map[string]string {
	return validate.MS{
		"required":          "{field} is required",
		"min_len":           "{field} must be between 10 and 100 characters",
		"max_len":           "{field} must be between 10 and 100 characters",
		"isWalletAddress":   "{field} must be 0x followed by 40 hex characters",
		"isTxHash":          "{field} must be 0x followed by 64 hex characters",
		"isFingerprintHash": "{field} must be 64 hex characters without 0x prefix",
	}
}

// NewTransaction is a validated, normalized record command handed to the store.
type NewTransaction struct {
	FingerprintID   string
	FingerprintHash string
	WalletAddress   string
	TxHash          string
	Timestamp       time.Time
}

// Validate checks every field and returns all failures at once.
func (in *RecordTransactionInput) Validate(now time.Time) error {
	verr := NewValidationError()

	v := validate.Struct(in)
	v.StopOnError = false
	if !v.Validate() {
		for field, failures := range v.Errors.All() {
			verr.Add(inputFieldName(field), firstMessage(failures))
		}
	}

	switch {
	case in.Timestamp.Invalid:
		verr.Add("timestamp", "timestamp must be an ISO-8601 string or a Unix epoch number")
	case in.Timestamp.Set && in.Timestamp.Time.After(now.Add(MaxFutureSkew)):
		verr.Add("timestamp", "timestamp must not be more than 24 hours in the future")
	}

	return verr.OrNil()
}

// ToNewTransaction normalizes hex values to lowercase and stamps the event
// with now when the caller did not supply a time. Call it after Validate.
func (in *RecordTransactionInput) ToNewTransaction(now time.Time) NewTransaction {
	ts := now.UTC()
	if in.Timestamp.Set && !in.Timestamp.Invalid {
		ts = in.Timestamp.Time
	}
	return NewTransaction{
		FingerprintID:   in.FingerprintID,
		FingerprintHash: strings.ToLower(in.HashedFingerprint),
		WalletAddress:   strings.ToLower(in.WalletAddress),
		TxHash:          strings.ToLower(in.TransactionHash),
		Timestamp:       ts,
	}
}

// ParseLookupHash accepts 0x + 64 hex and returns the stored hash form.
func ParseLookupHash(raw string) (string, error) {
	if !txHashPattern.MatchString(raw) {
		verr := NewValidationError()
		verr.Add("hash", "hash must be 0x followed by 64 hex characters")
		return "", verr
	}
	return strings.ToLower(raw[2:]), nil
}

// ValidateFingerprintID checks the length bounds of a lookup id.
func ValidateFingerprintID(id string) error {
	n := len([]rune(id))
	if n < MinFingerprintIDLen || n > MaxFingerprintIDLen {
		verr := NewValidationError()
		verr.Add("fingerprintId", "fingerprintId must be between 10 and 100 characters")
		return verr
	}
	return nil
}

// inputFieldNames maps struct field names to the JSON names callers send.
var inputFieldNames = map[string]string{
	"FingerprintID":     "fingerprintId",
	"WalletAddress":     "walletAddress",
	"TransactionHash":   "transactionHash",
	"HashedFingerprint": "hashedFingerprint",
}

func inputFieldName(field string) string {
	if name, ok := inputFieldNames[field]; ok {
		return name
	}
	return field
}

func firstMessage(failures map[string]string) string {
	if msg, ok := failures["required"]; ok {
		return msg
	}
	rules := make([]string, 0, len(failures))
	for rule := range failures {
		rules = append(rules, rule)
	}
	sort.Strings(rules)
	if len(rules) == 0 {
		return "invalid value"
	}
	return failures[rules[0]]
}
