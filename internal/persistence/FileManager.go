package persistence

import (
	"errors"
	"fmt"
	"os"

	"fpledger/internal/ledger"
	"fpledger/internal/models"
	"fpledger/internal/persistence/interfaces"
	"fpledger/internal/providers"

	json "github.com/goccy/go-json"
)

var ErrUnsupportedSnapshot = errors.New("unsupported ledger snapshot")

// FileManager writes the in-memory ledger to a zstd compressed JSON file and
// reads it back. Stores that are not snapshot-capable have nothing to save.
type FileManager struct {
	target     ledger.Snapshotter
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, store ledger.Store, logger providers.Logger) *FileManager {
	target, _ := store.(ledger.Snapshotter)
	return &FileManager{
		target:     target,
		compressor: compressor,
		logger:     logger,
	}
}

// Enabled reports whether the store keeps its state in memory.
func (f *FileManager) Enabled() bool {
	return f.target != nil
}

func (f *FileManager) SaveToFile(fileName string) error {
	if f.target == nil {
		return nil
	}
	snapshot := f.target.Snapshot()

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

// LoadFromFile restores the store from fileName. A missing file is a fresh
// start; any other failure, including an unknown format, is returned so the
// service does not start over an unreadable ledger.
func (f *FileManager) LoadFromFile(fileName string) error {
	if f.target == nil {
		return nil
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressed, err := f.compressor.Decompress(data)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", fileName, err)
	}

	var snapshot models.LedgerSnapshot
	if err := json.Unmarshal(decompressed, &snapshot); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedSnapshot, err)
	}
	if snapshot.Version != models.SnapshotVersion {
		return fmt.Errorf("%w: version %d", ErrUnsupportedSnapshot, snapshot.Version)
	}

	if err := f.target.Restore(&snapshot); err != nil {
		return err
	}
	f.logger.Infof(providers.TypeApp, "Restored %d fingerprint records from %s", len(snapshot.Records), fileName)
	return nil
}

func (f *FileManager) Close() {
	f.compressor.Close()
}
