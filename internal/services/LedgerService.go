package services

import (
	"context"
	"errors"
	"time"

	"fpledger/internal/ledger"
	"fpledger/internal/models"
	"fpledger/internal/providers"
	"fpledger/internal/structures"
)

type LedgerServiceInterface interface {
	RecordTransaction(ctx context.Context, input *models.RecordTransactionInput) (*models.FingerprintRecord, bool, error)
	GetByHash(ctx context.Context, rawHash string) (*models.FingerprintRecord, error)
	GetByID(ctx context.Context, fingerprintID string) (*models.FingerprintRecord, error)
	List(ctx context.Context, query models.ListQuery) ([]models.FingerprintRecord, int64, error)
	Count(ctx context.Context) (int64, error)
}

// LedgerService validates requests, bounds every store call with the
// configured timeout and keeps the response cache and metrics in step with
// ledger writes.
type LedgerService struct {
	store   ledger.Store
	cache   providers.CacheProviderInterface
	metrics providers.MetricsProviderInterface
	logger  providers.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewLedgerService(conf *structures.Config, store ledger.Store, cache providers.CacheProviderInterface, metrics providers.MetricsProviderInterface, logger providers.Logger) LedgerServiceInterface {
	return &LedgerService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		timeout: conf.Storage.Timeout,
		now:     time.Now,
	}
}

func (ls *LedgerService) RecordTransaction(ctx context.Context, input *models.RecordTransactionInput) (*models.FingerprintRecord, bool, error) {
	now := ls.now()
	if err := input.Validate(now); err != nil {
		return nil, false, err
	}
	tx := input.ToNewTransaction(now)

	var (
		record  *models.FingerprintRecord
		created bool
	)
	err := ls.observe(ctx, "record", func(ctx context.Context) error {
		var err error
		record, created, err = ls.store.RecordTransaction(ctx, tx)
		return err
	})
	switch {
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		ls.metrics.IncDuplicateTransactions()
		ls.logger.Debugf(providers.TypePost, "Duplicate transaction %s for fingerprint %s", tx.TxHash, tx.FingerprintID)
		return nil, false, err
	case err != nil:
		return nil, false, err
	}

	ls.cache.Invalidate()
	ls.metrics.IncTransactionsRecorded(created)
	if created {
		_, _ = ls.Count(ctx)
	}
	return record, created, nil
}

func (ls *LedgerService) GetByHash(ctx context.Context, rawHash string) (*models.FingerprintRecord, error) {
	hash, err := models.ParseLookupHash(rawHash)
	if err != nil {
		return nil, err
	}
	var record *models.FingerprintRecord
	err = ls.observe(ctx, "get_by_hash", func(ctx context.Context) error {
		var err error
		record, err = ls.store.GetByHash(ctx, hash)
		return err
	})
	return record, err
}

func (ls *LedgerService) GetByID(ctx context.Context, fingerprintID string) (*models.FingerprintRecord, error) {
	if err := models.ValidateFingerprintID(fingerprintID); err != nil {
		return nil, err
	}
	var record *models.FingerprintRecord
	err := ls.observe(ctx, "get_by_id", func(ctx context.Context) error {
		var err error
		record, err = ls.store.GetByID(ctx, fingerprintID)
		return err
	})
	return record, err
}

func (ls *LedgerService) List(ctx context.Context, query models.ListQuery) ([]models.FingerprintRecord, int64, error) {
	var (
		records []models.FingerprintRecord
		total   int64
	)
	err := ls.observe(ctx, "list", func(ctx context.Context) error {
		var err error
		records, total, err = ls.store.List(ctx, query)
		return err
	})
	return records, total, err
}

// Count also refreshes the records gauge.
func (ls *LedgerService) Count(ctx context.Context) (int64, error) {
	var total int64
	err := ls.observe(ctx, "count", func(ctx context.Context) error {
		var err error
		total, err = ls.store.Count(ctx)
		return err
	})
	if err == nil {
		ls.metrics.SetRecordsTotal(total)
	}
	return total, err
}

// observe runs one store call under the storage timeout and records its
// latency. Storage failures are counted and logged here, once.
func (ls *LedgerService) observe(ctx context.Context, op string, call func(ctx context.Context) error) error {
	if ls.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ls.timeout)
		defer cancel()
	}

	start := time.Now()
	err := call(ctx)
	ls.metrics.ObserveStoreDuration(op, time.Since(start))

	if errors.Is(err, ledger.ErrStorageUnavailable) {
		ls.metrics.IncStoreErrors(op)
		ls.logger.Errorf(providers.TypeApp, "Ledger store %s failed: %v", op, err)
	}
	return err
}
