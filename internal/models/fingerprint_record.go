package models

import (
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// TransactionEntry is one confirmed on-chain payment linked to a fingerprint.
// TxHash is the natural key: it is unique within the owning record.
type TransactionEntry struct {
	TxHash        string    `json:"txHash"`
	WalletAddress string    `json:"walletAddress"`
	Timestamp     time.Time `json:"timestamp"`
}

// FingerprintRecord is the full, unredacted ledger view of one fingerprint.
type FingerprintRecord struct {
	ID              int64              `json:"id"`
	FingerprintID   string             `json:"fingerprintId"`
	FingerprintHash string             `json:"fingerprintHash"`
	Transactions    []TransactionEntry `json:"transactions"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// HasTransaction reports whether txHash is already in the history.
// Hashes compare case-insensitively.
func (fr *FingerprintRecord) HasTransaction(txHash string) bool {
	for _, tx := range fr.Transactions {
		if strings.EqualFold(tx.TxHash, txHash) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can never alias a stored history.
func (fr *FingerprintRecord) Clone() *FingerprintRecord {
	cp := *fr
	cp.Transactions = make([]TransactionEntry, len(fr.Transactions))
	copy(cp.Transactions, fr.Transactions)
	return &cp
}

// StoredRecord is the persisted row shape shared by every backend: the
// transaction history is kept as a serialized JSON blob and replaced whole on
// each append.
type StoredRecord struct {
	ID              int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	FingerprintID   string    `json:"fingerprint_id" gorm:"size:100;not null;uniqueIndex"`
	FingerprintHash string    `json:"fingerprint_hash" gorm:"size:64;not null;index"`
	Transactions    string    `json:"transactions" gorm:"type:text;not null"`
	CreatedAt       time.Time `json:"created_at" gorm:"not null;index"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"not null;index"`
}

func (StoredRecord) TableName() string {
	return "fingerprint_records"
}

// EncodeTransactions serializes a history for storage. A nil history is
// written as an empty array.
func EncodeTransactions(txs []TransactionEntry) (string, error) {
	if txs == nil {
		txs = []TransactionEntry{}
	}
	data, err := json.Marshal(txs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeTransactions parses a stored history. Blobs that are not a valid JSON
// array decode as an empty history and ok is false, so one corrupt column
// never makes the whole record unreadable.
func DecodeTransactions(blob string) (txs []TransactionEntry, ok bool) {
	if strings.TrimSpace(blob) == "" {
		return []TransactionEntry{}, true
	}
	if err := json.Unmarshal([]byte(blob), &txs); err != nil {
		return []TransactionEntry{}, false
	}
	if txs == nil {
		txs = []TransactionEntry{}
	}
	return txs, true
}

// Decode converts a stored row into its domain form. ok is false when the
// transaction blob was corrupt and has been replaced by an empty history.
func (sr *StoredRecord) Decode() (*FingerprintRecord, bool) {
	txs, ok := DecodeTransactions(sr.Transactions)
	return &FingerprintRecord{
		ID:              sr.ID,
		FingerprintID:   sr.FingerprintID,
		FingerprintHash: sr.FingerprintHash,
		Transactions:    txs,
		CreatedAt:       sr.CreatedAt,
		UpdatedAt:       sr.UpdatedAt,
	}, ok
}
