package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHistory() []TransactionEntry {
	ts := time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC)
	return []TransactionEntry{
		{TxHash: "0x" + strings.Repeat("a", 64), WalletAddress: "0x" + strings.Repeat("b", 40), Timestamp: ts},
		{TxHash: "0x" + strings.Repeat("c", 64), WalletAddress: "0x" + strings.Repeat("d", 40), Timestamp: ts.Add(time.Hour)},
	}
}

func TestEncodeDecodeTransactions(t *testing.T) {
	blob, err := EncodeTransactions(sampleHistory())
	require.NoError(t, err)
	assert.Contains(t, blob, `"txHash"`)

	txs, ok := DecodeTransactions(blob)
	assert.True(t, ok)
	assert.Equal(t, sampleHistory(), txs)
}

func TestEncodeTransactions_NilIsEmptyArray(t *testing.T) {
	blob, err := EncodeTransactions(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", blob)
}

func TestDecodeTransactions_Corrupt(t *testing.T) {
	for _, blob := range []string{"{not json", `{"txHash":"0x1"}`, "[1,2", `"string"`} {
		txs, ok := DecodeTransactions(blob)
		assert.False(t, ok, blob)
		assert.NotNil(t, txs, blob)
		assert.Empty(t, txs, blob)
	}
}

func TestDecodeTransactions_EmptyAndNull(t *testing.T) {
	txs, ok := DecodeTransactions("")
	assert.True(t, ok)
	assert.Empty(t, txs)

	txs, ok = DecodeTransactions("null")
	assert.True(t, ok)
	assert.NotNil(t, txs)
}

func TestStoredRecord_Decode(t *testing.T) {
	now := time.Now().UTC()
	row := &StoredRecord{ID: 3, FingerprintID: "fingerprint-0003", FingerprintHash: strings.Repeat("f", 64), Transactions: "garbage", CreatedAt: now, UpdatedAt: now}

	record, ok := row.Decode()
	assert.False(t, ok)
	assert.Equal(t, int64(3), record.ID)
	assert.Equal(t, "fingerprint-0003", record.FingerprintID)
	assert.Empty(t, record.Transactions)
}

func TestFingerprintRecord_HasTransaction(t *testing.T) {
	fr := &FingerprintRecord{Transactions: sampleHistory()}

	assert.True(t, fr.HasTransaction("0x"+strings.Repeat("a", 64)))
	assert.True(t, fr.HasTransaction("0x"+strings.Repeat("A", 64)))
	assert.False(t, fr.HasTransaction("0x"+strings.Repeat("e", 64)))
}

func TestFingerprintRecord_CloneIsDeep(t *testing.T) {
	fr := &FingerprintRecord{ID: 1, Transactions: sampleHistory()}
	cp := fr.Clone()

	cp.Transactions[0].TxHash = "changed"
	cp.Transactions = append(cp.Transactions, TransactionEntry{})

	assert.Equal(t, "0x"+strings.Repeat("a", 64), fr.Transactions[0].TxHash)
	assert.Len(t, fr.Transactions, 2)
}

func TestStoredRecord_TableName(t *testing.T) {
	assert.Equal(t, "fingerprint_records", StoredRecord{}.TableName())
}
