// Package ledger owns the durable fingerprint → transaction history mapping.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"fpledger/internal/models"
)

var (
	// ErrDuplicateTransaction is returned when the tx hash is already recorded
	// for the fingerprint. Nothing is written.
	ErrDuplicateTransaction = errors.New("transaction already recorded for fingerprint")

	// ErrFingerprintHashMismatch is returned when the fingerprint id is known
	// under a different fingerprint hash.
	ErrFingerprintHashMismatch = errors.New("fingerprint id is registered with a different hash")

	// ErrNotFound is returned by lookups when no record matches.
	ErrNotFound = errors.New("fingerprint record not found")

	// ErrStorageUnavailable wraps every failure of the backing store,
	// including timeouts and cancelled requests.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Reader serves lookups. Returned records are copies owned by the caller.
type Reader interface {
	GetByHash(ctx context.Context, fingerprintHash string) (*models.FingerprintRecord, error)
	GetByID(ctx context.Context, fingerprintID string) (*models.FingerprintRecord, error)
	List(ctx context.Context, query models.ListQuery) ([]models.FingerprintRecord, int64, error)
	Count(ctx context.Context) (int64, error)
}

// Writer holds the single mutating operation of the ledger.
type Writer interface {
	// RecordTransaction appends tx to the fingerprint history, creating the
	// record on first sight. created reports which of the two happened.
	RecordTransaction(ctx context.Context, tx models.NewTransaction) (record *models.FingerprintRecord, created bool, err error)
}

type Store interface {
	Reader
	Writer
	Close() error
}

// Snapshotter is implemented by stores that keep their state in memory and
// rely on file snapshots for durability.
type Snapshotter interface {
	Snapshot() *models.LedgerSnapshot
	Restore(snapshot *models.LedgerSnapshot) error
}

// CorruptionReporter receives records whose transaction blob had to be
// replaced by an empty history on read.
type CorruptionReporter func(fingerprintID string)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}

// ctxErr turns a finished context into a storage failure.
func ctxErr(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return unavailable(op, err)
	}
	return nil
}
