package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fpledger/internal/ledger"
	"fpledger/internal/structures"
	"fpledger/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(filePath string, interval time.Duration) *structures.Config {
	return &structures.Config{
		Storage: structures.StorageConfig{Driver: "memory"},
		Persistence: structures.Persistence{
			FilePath:     filePath,
			SaveInterval: interval,
		},
	}
}

func TestScheduler_PersistAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.dat")
	conf := testConfig(path, time.Hour)
	metrics := testutil.NewMockMetrics()

	src := NewScheduler(conf, &testutil.MockLogger{}, NewFileManager(&testutil.MockCompressor{}, seededStore(t), &testutil.MockLogger{}), metrics)
	require.NoError(t, src.Persist())
	assert.Equal(t, 1, metrics.Persisted)

	restored := ledger.NewMemoryStore()
	dst := NewScheduler(conf, &testutil.MockLogger{}, NewFileManager(&testutil.MockCompressor{}, restored, &testutil.MockLogger{}), metrics)
	require.NoError(t, dst.Restore())

	count, err := restored.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestScheduler_PersistError(t *testing.T) {
	conf := testConfig(filepath.Join(t.TempDir(), "missing-dir", "ledger.dat"), time.Hour)
	logger := &testutil.MockLogger{}
	s := NewScheduler(conf, logger, NewFileManager(&testutil.MockCompressor{}, seededStore(t), logger), testutil.NewMockMetrics())

	assert.Error(t, s.Persist())
	assert.Equal(t, 1, logger.Count("error"))
}

func TestScheduler_InitSavesPeriodically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.dat")
	conf := testConfig(path, time.Second)
	s := NewScheduler(conf, &testutil.MockLogger{}, NewFileManager(&testutil.MockCompressor{}, seededStore(t), &testutil.MockLogger{}), testutil.NewMockMetrics())

	s.Init()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}

func TestScheduler_SQLStoreSkipsPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.dat")
	conf := testConfig(path, time.Second)
	conf.Storage.Driver = "postgres"
	metrics := testutil.NewMockMetrics()
	s := NewScheduler(conf, &testutil.MockLogger{}, NewFileManager(&testutil.MockCompressor{}, &testutil.MockStore{}, &testutil.MockLogger{}), metrics)

	s.Init()
	s.Stop()
	require.NoError(t, s.Persist())
	assert.Zero(t, metrics.Persisted)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
