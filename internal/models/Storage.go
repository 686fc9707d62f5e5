package models

// SnapshotVersion is the current on-disk layout of the memory ledger.
const SnapshotVersion = 1

// LedgerSnapshot is the persisted form of the in-memory ledger. Rows keep
// their transaction blob verbatim, including corrupt ones.
type LedgerSnapshot struct {
	Version int            `json:"version"`
	NextID  int64          `json:"next_id"`
	Records []StoredRecord `json:"records"`
}
