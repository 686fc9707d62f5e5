package ledger

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"fpledger/internal/models"

	"go.uber.org/atomic"
)

// MemoryStore keeps the ledger in process memory. Published rows are never
// modified: an append builds a new row and swaps the pointer under the write
// lock, so readers see either the old or the new history, never a mix.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*models.StoredRecord
	byHash map[string]string
	nextID atomic.Int64
	locks  *KeyedMutex
	opts   options
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*models.StoredRecord),
		byHash: make(map[string]string),
		locks:  NewKeyedMutex(),
		opts:   buildOptions(opts),
	}
}

var (
	_ Store       = (*MemoryStore)(nil)
	_ Snapshotter = (*MemoryStore)(nil)
)

func (s *MemoryStore) RecordTransaction(ctx context.Context, tx models.NewTransaction) (*models.FingerprintRecord, bool, error) {
	unlock := s.locks.Lock(tx.FingerprintID)
	defer unlock()

	if err := ctxErr(ctx, "record transaction"); err != nil {
		return nil, false, err
	}

	entry := models.TransactionEntry{
		TxHash:        tx.TxHash,
		WalletAddress: tx.WalletAddress,
		Timestamp:     tx.Timestamp,
	}
	now := s.opts.now().UTC()

	s.mu.RLock()
	current := s.byID[tx.FingerprintID]
	s.mu.RUnlock()

	if current == nil {
		blob, err := models.EncodeTransactions([]models.TransactionEntry{entry})
		if err != nil {
			return nil, false, fmt.Errorf("encode transactions: %w", err)
		}
		row := &models.StoredRecord{
			ID:              s.nextID.Inc(),
			FingerprintID:   tx.FingerprintID,
			FingerprintHash: tx.FingerprintHash,
			Transactions:    blob,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		s.mu.Lock()
		s.publish(row)
		s.mu.Unlock()

		record, _ := row.Decode()
		return record, true, nil
	}

	if !strings.EqualFold(current.FingerprintHash, tx.FingerprintHash) {
		return nil, false, ErrFingerprintHashMismatch
	}

	record := s.decode(current)
	if record.HasTransaction(tx.TxHash) {
		return nil, false, ErrDuplicateTransaction
	}
	record.Transactions = append(record.Transactions, entry)

	blob, err := models.EncodeTransactions(record.Transactions)
	if err != nil {
		return nil, false, fmt.Errorf("encode transactions: %w", err)
	}
	next := *current
	next.Transactions = blob
	next.UpdatedAt = stampUpdate(now, current.CreatedAt)

	s.mu.Lock()
	s.byID[next.FingerprintID] = &next
	s.mu.Unlock()

	record.UpdatedAt = next.UpdatedAt
	return record, false, nil
}

// publish indexes a new row. Must be called under s.mu.Lock().
func (s *MemoryStore) publish(row *models.StoredRecord) {
	s.byID[row.FingerprintID] = row
	if _, taken := s.byHash[row.FingerprintHash]; !taken {
		s.byHash[row.FingerprintHash] = row.FingerprintID
	}
}

func (s *MemoryStore) decode(row *models.StoredRecord) *models.FingerprintRecord {
	record, ok := row.Decode()
	if !ok {
		s.opts.onCorrupt(row.FingerprintID)
	}
	return record
}

func (s *MemoryStore) GetByHash(ctx context.Context, fingerprintHash string) (*models.FingerprintRecord, error) {
	if err := ctxErr(ctx, "get by hash"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	row := s.byID[s.byHash[strings.ToLower(fingerprintHash)]]
	s.mu.RUnlock()
	if row == nil {
		return nil, ErrNotFound
	}
	return s.decode(row), nil
}

func (s *MemoryStore) GetByID(ctx context.Context, fingerprintID string) (*models.FingerprintRecord, error) {
	if err := ctxErr(ctx, "get by id"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	row := s.byID[fingerprintID]
	s.mu.RUnlock()
	if row == nil {
		return nil, ErrNotFound
	}
	return s.decode(row), nil
}

func (s *MemoryStore) List(ctx context.Context, query models.ListQuery) ([]models.FingerprintRecord, int64, error) {
	if err := ctxErr(ctx, "list"); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	rows := make([]*models.StoredRecord, 0, len(s.byID))
	for _, row := range s.byID {
		rows = append(rows, row)
	}
	s.mu.RUnlock()

	slices.SortFunc(rows, rowComparator(query))

	total := int64(len(rows))
	start := min(query.Offset(), len(rows))
	end := min(start+query.PageSize, len(rows))

	records := make([]models.FingerprintRecord, 0, end-start)
	for _, row := range rows[start:end] {
		records = append(records, *s.decode(row))
	}
	return records, total, nil
}

// rowComparator orders by the requested field and breaks ties on id
// ascending, so pages are stable between calls.
func rowComparator(query models.ListQuery) func(a, b *models.StoredRecord) int {
	return func(a, b *models.StoredRecord) int {
		var c int
		switch query.SortField {
		case models.SortByUpdatedAt:
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		case models.SortByFingerprintID:
			c = strings.Compare(a.FingerprintID, b.FingerprintID)
		case models.SortByFingerprintHash:
			c = strings.Compare(a.FingerprintHash, b.FingerprintHash)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if query.Descending() {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	}
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	if err := ctxErr(ctx, "count"); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Snapshot copies every row, ordered by id.
func (s *MemoryStore) Snapshot() *models.LedgerSnapshot {
	s.mu.RLock()
	records := make([]models.StoredRecord, 0, len(s.byID))
	for _, row := range s.byID {
		records = append(records, *row)
	}
	s.mu.RUnlock()

	slices.SortFunc(records, func(a, b models.StoredRecord) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return &models.LedgerSnapshot{
		Version: models.SnapshotVersion,
		NextID:  s.nextID.Load(),
		Records: records,
	}
}

// Restore replaces the store content with a snapshot. Rows with a duplicate
// fingerprint id or id are rejected, since they would break the ledger
// invariants.
func (s *MemoryStore) Restore(snapshot *models.LedgerSnapshot) error {
	if snapshot == nil {
		return nil
	}
	if snapshot.Version != models.SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}

	byID := make(map[string]*models.StoredRecord, len(snapshot.Records))
	byHash := make(map[string]string, len(snapshot.Records))
	seenIDs := make(map[int64]struct{}, len(snapshot.Records))
	maxID := snapshot.NextID

	for i := range snapshot.Records {
		row := snapshot.Records[i]
		if _, dup := byID[row.FingerprintID]; dup {
			return fmt.Errorf("snapshot has duplicate fingerprint id %q", row.FingerprintID)
		}
		if _, dup := seenIDs[row.ID]; dup {
			return fmt.Errorf("snapshot has duplicate record id %d", row.ID)
		}
		seenIDs[row.ID] = struct{}{}
		byID[row.FingerprintID] = &row
		if _, taken := byHash[row.FingerprintHash]; !taken {
			byHash[row.FingerprintHash] = row.FingerprintID
		}
		maxID = max(maxID, row.ID)
	}

	s.mu.Lock()
	s.byID = byID
	s.byHash = byHash
	s.nextID.Store(maxID)
	s.mu.Unlock()
	return nil
}
