package testutil

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fpledger/internal/models"
	"fpledger/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.Logs {
		if l.Level == level {
			n++
		}
	}
	return n
}

// MockStore implements ledger.Store with injectable behavior.
type MockStore struct {
	mu sync.Mutex

	RecordFn    func(ctx context.Context, tx models.NewTransaction) (*models.FingerprintRecord, bool, error)
	GetByHashFn func(ctx context.Context, hash string) (*models.FingerprintRecord, error)
	GetByIDFn   func(ctx context.Context, id string) (*models.FingerprintRecord, error)
	ListFn      func(ctx context.Context, query models.ListQuery) ([]models.FingerprintRecord, int64, error)
	CountFn     func(ctx context.Context) (int64, error)

	RecordCalls []models.NewTransaction
	HashCalls   []string
	ListCalls   []models.ListQuery
	Closed      bool
}

func (m *MockStore) RecordTransaction(ctx context.Context, tx models.NewTransaction) (*models.FingerprintRecord, bool, error) {
	m.mu.Lock()
	m.RecordCalls = append(m.RecordCalls, tx)
	m.mu.Unlock()
	if m.RecordFn != nil {
		return m.RecordFn(ctx, tx)
	}
	return &models.FingerprintRecord{ID: 1, FingerprintID: tx.FingerprintID, FingerprintHash: tx.FingerprintHash}, true, nil
}

func (m *MockStore) GetByHash(ctx context.Context, hash string) (*models.FingerprintRecord, error) {
	m.mu.Lock()
	m.HashCalls = append(m.HashCalls, hash)
	m.mu.Unlock()
	if m.GetByHashFn != nil {
		return m.GetByHashFn(ctx, hash)
	}
	return &models.FingerprintRecord{FingerprintHash: hash}, nil
}

func (m *MockStore) GetByID(ctx context.Context, id string) (*models.FingerprintRecord, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return &models.FingerprintRecord{FingerprintID: id}, nil
}

func (m *MockStore) List(ctx context.Context, query models.ListQuery) ([]models.FingerprintRecord, int64, error) {
	m.mu.Lock()
	m.ListCalls = append(m.ListCalls, query)
	m.mu.Unlock()
	if m.ListFn != nil {
		return m.ListFn(ctx, query)
	}
	return []models.FingerprintRecord{}, 0, nil
}

func (m *MockStore) Count(ctx context.Context) (int64, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}
	return 0, nil
}

func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// MockLedgerService implements services.LedgerServiceInterface.
type MockLedgerService struct {
	RecordFn    func(ctx context.Context, input *models.RecordTransactionInput) (*models.FingerprintRecord, bool, error)
	GetByHashFn func(ctx context.Context, rawHash string) (*models.FingerprintRecord, error)
	GetByIDFn   func(ctx context.Context, id string) (*models.FingerprintRecord, error)
	ListFn      func(ctx context.Context, query models.ListQuery) ([]models.FingerprintRecord, int64, error)
	CountFn     func(ctx context.Context) (int64, error)

	mu        sync.Mutex
	ListCalls int
}

func (m *MockLedgerService) RecordTransaction(ctx context.Context, input *models.RecordTransactionInput) (*models.FingerprintRecord, bool, error) {
	if m.RecordFn != nil {
		return m.RecordFn(ctx, input)
	}
	return &models.FingerprintRecord{ID: 1, FingerprintID: input.FingerprintID}, true, nil
}

func (m *MockLedgerService) GetByHash(ctx context.Context, rawHash string) (*models.FingerprintRecord, error) {
	if m.GetByHashFn != nil {
		return m.GetByHashFn(ctx, rawHash)
	}
	return &models.FingerprintRecord{}, nil
}

func (m *MockLedgerService) GetByID(ctx context.Context, id string) (*models.FingerprintRecord, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return &models.FingerprintRecord{FingerprintID: id}, nil
}

func (m *MockLedgerService) List(ctx context.Context, query models.ListQuery) ([]models.FingerprintRecord, int64, error) {
	m.mu.Lock()
	m.ListCalls++
	m.mu.Unlock()
	if m.ListFn != nil {
		return m.ListFn(ctx, query)
	}
	return []models.FingerprintRecord{}, 0, nil
}

func (m *MockLedgerService) Count(ctx context.Context) (int64, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}
	return 0, nil
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu            sync.Mutex
	Data          map[string][]byte
	Invalidations int
	StaleSets     int
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

// Get reports the invalidation count as the generation.
func (m *MockCache) Get(key string) ([]byte, uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, uint64(m.Invalidations), ok
}

// Set drops values computed before the latest Invalidate and counts them.
func (m *MockCache) Set(generation uint64, key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != uint64(m.Invalidations) {
		m.StaleSets++
		return
	}
	m.Data[key] = value
}

func (m *MockCache) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data = make(map[string][]byte)
	m.Invalidations++
}

// MockAuthorizer implements policy.Authorizer with a fixed answer.
type MockAuthorizer struct {
	Privileged bool
}

func (m *MockAuthorizer) IsPrivileged(_ *http.Request) bool {
	return m.Privileged
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu           sync.Mutex
	Requests     int
	CacheHits    int
	CacheMisses  int
	Invalidated  int
	Persisted    int
	StoreOps     map[string]int
	StoreErrors  map[string]int
	Created      int
	Appended     int
	Duplicates   int
	RecordsTotal int64
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{StoreOps: make(map[string]int), StoreErrors: make(map[string]int)}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}
func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}
func (m *MockMetrics) IncCacheInvalidations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidated++
}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persisted++
}
func (m *MockMetrics) ObserveStoreDuration(op string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreOps[op]++
}
func (m *MockMetrics) IncStoreErrors(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreErrors[op]++
}
func (m *MockMetrics) IncTransactionsRecorded(created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if created {
		m.Created++
	} else {
		m.Appended++
	}
}
func (m *MockMetrics) IncDuplicateTransactions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duplicates++
}
func (m *MockMetrics) SetRecordsTotal(count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordsTotal = count
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}
