package policy

import (
	"time"

	"fpledger/internal/models"
)

const (
	idPrefixLen   = 8
	maskPrefixLen = 6
	maskSuffixLen = 4
	maskMarker    = "..."
)

// ListEntry is one record as rendered in a list response.
type ListEntry struct {
	ID               int64                     `json:"id"`
	FingerprintID    string                    `json:"fingerprintId"`
	FingerprintHash  string                    `json:"fingerprintHash"`
	Transactions     []models.TransactionEntry `json:"transactions"`
	TransactionCount int                       `json:"transactionCount"`
	CreatedAt        time.Time                 `json:"createdAt"`
	UpdatedAt        time.Time                 `json:"updatedAt"`
}

// ShapeListEntry renders record for a caller. Privileged callers get every
// value as stored; everyone else gets truncated identifiers and masked hashes
// and addresses. record is never modified.
func ShapeListEntry(record *models.FingerprintRecord, privileged bool) ListEntry {
	txs := make([]models.TransactionEntry, len(record.Transactions))
	for i, tx := range record.Transactions {
		if !privileged {
			tx.TxHash = maskMiddle(tx.TxHash)
			tx.WalletAddress = maskMiddle(tx.WalletAddress)
		}
		txs[i] = tx
	}

	entry := ListEntry{
		ID:               record.ID,
		FingerprintID:    record.FingerprintID,
		FingerprintHash:  record.FingerprintHash,
		Transactions:     txs,
		TransactionCount: len(txs),
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
	if !privileged {
		entry.FingerprintID = truncate(record.FingerprintID)
		entry.FingerprintHash = maskMiddle(record.FingerprintHash)
	}
	return entry
}

// ShapeList applies ShapeListEntry to a page of records.
func ShapeList(records []models.FingerprintRecord, privileged bool) []ListEntry {
	entries := make([]ListEntry, 0, len(records))
	for i := range records {
		entries = append(entries, ShapeListEntry(&records[i], privileged))
	}
	return entries
}

// truncate keeps the first 8 characters. Values that short are hidden whole.
func truncate(s string) string {
	if len(s) <= idPrefixLen {
		return maskMarker
	}
	return s[:idPrefixLen] + maskMarker
}

// maskMiddle keeps 6 leading and 4 trailing characters. Values that would
// be revealed whole are hidden completely.
func maskMiddle(s string) string {
	if len(s) <= maskPrefixLen+maskSuffixLen {
		return maskMarker
	}
	return s[:maskPrefixLen] + maskMarker + s[len(s)-maskSuffixLen:]
}
