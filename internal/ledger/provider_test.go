package ledger

import (
	"testing"

	"fpledger/internal/structures"
	"fpledger/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreProvider_Memory(t *testing.T) {
	conf := &structures.Config{Storage: structures.StorageConfig{Driver: DriverMemory}}
	store, err := NewStoreProvider(conf, &testutil.MockLogger{})
	require.NoError(t, err)
	_, ok := store.(*MemoryStore)
	assert.True(t, ok)
}

func TestNewStoreProvider_SQLite(t *testing.T) {
	conf := &structures.Config{Storage: structures.StorageConfig{
		Driver: DriverSQLite,
		DSN:    "file:provider_test?mode=memory&cache=shared",
	}}
	store, err := NewStoreProvider(conf, &testutil.MockLogger{})
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*GormStore)
	assert.True(t, ok)
}

func TestNewStoreProvider_UnknownDriver(t *testing.T) {
	conf := &structures.Config{Storage: structures.StorageConfig{Driver: "cassandra"}}
	_, err := NewStoreProvider(conf, &testutil.MockLogger{})
	assert.Error(t, err)
}
