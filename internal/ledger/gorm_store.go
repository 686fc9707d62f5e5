package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fpledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps the ledger in a SQL database. Appends run as a
// read-check-write inside one transaction holding a row lock, and are also
// serialized per fingerprint inside the process.
type GormStore struct {
	db    *gorm.DB
	locks *KeyedMutex
	opts  options
}

var _ Store = (*GormStore)(nil)

// NewGormStore migrates the fingerprint_records table and returns the store.
func NewGormStore(db *gorm.DB, opts ...Option) (*GormStore, error) {
	if err := db.AutoMigrate(&models.StoredRecord{}); err != nil {
		return nil, fmt.Errorf("migrate fingerprint records: %w", err)
	}
	return &GormStore{
		db:    db,
		locks: NewKeyedMutex(),
		opts:  buildOptions(opts),
	}, nil
}

func (s *GormStore) RecordTransaction(ctx context.Context, tx models.NewTransaction) (*models.FingerprintRecord, bool, error) {
	unlock := s.locks.Lock(tx.FingerprintID)
	defer unlock()

	var (
		record  *models.FingerprintRecord
		created bool
		err     error
	)
	// A second attempt covers another process creating the same fingerprint
	// between our lookup and insert; it then takes the append path.
	for attempt := 0; attempt < 2; attempt++ {
		record, created, err = s.recordOnce(ctx, tx)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}

	switch {
	case err == nil:
		return record, created, nil
	case errors.Is(err, ErrDuplicateTransaction), errors.Is(err, ErrFingerprintHashMismatch):
		return nil, false, err
	default:
		return nil, false, unavailable("record transaction", err)
	}
}

func (s *GormStore) recordOnce(ctx context.Context, tx models.NewTransaction) (*models.FingerprintRecord, bool, error) {
	var (
		record  *models.FingerprintRecord
		created bool
	)
	entry := models.TransactionEntry{
		TxHash:        tx.TxHash,
		WalletAddress: tx.WalletAddress,
		Timestamp:     tx.Timestamp,
	}
	now := s.opts.now().UTC().Truncate(time.Microsecond)

	err := s.db.WithContext(ctx).Transaction(func(dbTx *gorm.DB) error {
		var row models.StoredRecord
		err := dbTx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("fingerprint_id = ?", tx.FingerprintID).
			Take(&row).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			blob, err := models.EncodeTransactions([]models.TransactionEntry{entry})
			if err != nil {
				return err
			}
			row = models.StoredRecord{
				FingerprintID:   tx.FingerprintID,
				FingerprintHash: tx.FingerprintHash,
				Transactions:    blob,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := dbTx.Create(&row).Error; err != nil {
				return err
			}
			record, _ = row.Decode()
			created = true
			return nil
		}
		if err != nil {
			return err
		}

		if !strings.EqualFold(row.FingerprintHash, tx.FingerprintHash) {
			return ErrFingerprintHashMismatch
		}

		record = s.decode(&row)
		if record.HasTransaction(tx.TxHash) {
			return ErrDuplicateTransaction
		}
		record.Transactions = append(record.Transactions, entry)

		blob, err := models.EncodeTransactions(record.Transactions)
		if err != nil {
			return err
		}
		updatedAt := stampUpdate(now, row.CreatedAt)
		err = dbTx.Model(&models.StoredRecord{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"transactions": blob,
				"updated_at":   updatedAt,
			}).Error
		if err != nil {
			return err
		}
		record.UpdatedAt = updatedAt
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return record, created, nil
}

func (s *GormStore) decode(row *models.StoredRecord) *models.FingerprintRecord {
	record, ok := row.Decode()
	if !ok {
		s.opts.onCorrupt(row.FingerprintID)
	}
	return record
}

func (s *GormStore) find(ctx context.Context, op string, query interface{}, args ...interface{}) (*models.FingerprintRecord, error) {
	var row models.StoredRecord
	err := s.db.WithContext(ctx).Where(query, args...).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable(op, err)
	}
	return s.decode(&row), nil
}

func (s *GormStore) GetByHash(ctx context.Context, fingerprintHash string) (*models.FingerprintRecord, error) {
	return s.find(ctx, "get by hash", "fingerprint_hash = ?", strings.ToLower(fingerprintHash))
}

func (s *GormStore) GetByID(ctx context.Context, fingerprintID string) (*models.FingerprintRecord, error) {
	return s.find(ctx, "get by id", "fingerprint_id = ?", fingerprintID)
}

// List reads the page and the total with two statements; under concurrent
// inserts the total may be off by the records created in between.
func (s *GormStore) List(ctx context.Context, query models.ListQuery) ([]models.FingerprintRecord, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.StoredRecord{}).Count(&total).Error; err != nil {
		return nil, 0, unavailable("list", err)
	}

	var rows []models.StoredRecord
	err := s.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: query.SortField.Column()}, Desc: query.Descending()}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Offset(query.Offset()).
		Limit(query.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, unavailable("list", err)
	}

	records := make([]models.FingerprintRecord, 0, len(rows))
	for i := range rows {
		records = append(records, *s.decode(&rows[i]))
	}
	return records, total, nil
}

func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.StoredRecord{}).Count(&total).Error; err != nil {
		return 0, unavailable("count", err)
	}
	return total, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
