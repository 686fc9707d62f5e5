package policy

import (
	"strings"
	"testing"
	"time"

	"fpledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *models.FingerprintRecord {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.FingerprintRecord{
		ID:              7,
		FingerprintID:   "fp_1234567890abcdef",
		FingerprintHash: strings.Repeat("ab", 32),
		Transactions: []models.TransactionEntry{
			{TxHash: "0x" + strings.Repeat("1", 64), WalletAddress: "0x" + strings.Repeat("2", 40), Timestamp: now},
			{TxHash: "0x" + strings.Repeat("3", 64), WalletAddress: "0x" + strings.Repeat("4", 40), Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestShapeListEntry_Privileged(t *testing.T) {
	record := sampleRecord()
	entry := ShapeListEntry(record, true)

	assert.Equal(t, record.FingerprintID, entry.FingerprintID)
	assert.Equal(t, record.FingerprintHash, entry.FingerprintHash)
	assert.Equal(t, record.Transactions, entry.Transactions)
	assert.Equal(t, 2, entry.TransactionCount)
}

func TestShapeListEntry_Unprivileged(t *testing.T) {
	record := sampleRecord()
	entry := ShapeListEntry(record, false)

	assert.Equal(t, "fp_12345...", entry.FingerprintID)
	prefix := strings.TrimSuffix(entry.FingerprintID, maskMarker)
	assert.True(t, strings.HasPrefix(record.FingerprintID, prefix))
	assert.Less(t, len(prefix), len(record.FingerprintID))

	assert.Equal(t, "ababab...abab", entry.FingerprintHash)

	require.Len(t, entry.Transactions, 2)
	for i, tx := range entry.Transactions {
		original := record.Transactions[i]
		assert.NotEqual(t, original.TxHash, tx.TxHash)
		assert.NotEqual(t, original.WalletAddress, tx.WalletAddress)
		assert.True(t, strings.HasPrefix(tx.TxHash, original.TxHash[:6]))
		assert.True(t, strings.HasSuffix(tx.TxHash, original.TxHash[len(original.TxHash)-4:]))
		assert.Contains(t, tx.WalletAddress, maskMarker)
		assert.Equal(t, original.Timestamp, tx.Timestamp)
	}
	assert.Equal(t, record.ID, entry.ID)
}

func TestShapeListEntry_DoesNotMutateInput(t *testing.T) {
	record := sampleRecord()
	snapshot := record.Clone()

	_ = ShapeListEntry(record, false)

	assert.Equal(t, snapshot, record)
}

func TestMaskHelpers_ShortValues(t *testing.T) {
	assert.Equal(t, "...", truncate("short"))
	assert.Equal(t, "...", truncate("12345678"))
	assert.Equal(t, "12345678...", truncate("123456789"))

	assert.Equal(t, "...", maskMiddle("0123456789"))
	assert.Equal(t, "012345...789a", maskMiddle("0123456789a"))
	assert.Equal(t, "...", maskMiddle(""))
}

func TestShapeList(t *testing.T) {
	records := []models.FingerprintRecord{*sampleRecord(), *sampleRecord()}
	entries := ShapeList(records, false)
	require.Len(t, entries, 2)
	assert.Equal(t, "fp_12345...", entries[1].FingerprintID)

	assert.Empty(t, ShapeList(nil, true))
}
