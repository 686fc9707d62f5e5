package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"fpledger/internal/structures"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	// .env is optional; real environment variables win.
	_ = godotenv.Load(filepath.Join(filepath.Dir(flags.ConfigPath), ".env"))

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.timeout", 5*time.Second)
	v.SetDefault("access.protectLookups", true)
	v.SetDefault("cache.ttl", 30*time.Second)

	v.BindEnv("logger.level", "LEDGER_LOG_LEVEL")
	v.BindEnv("storage.driver", "LEDGER_STORAGE_DRIVER")
	v.BindEnv("storage.dsn", "LEDGER_STORAGE_DSN")
	v.BindEnv("storage.timeout", "LEDGER_STORAGE_TIMEOUT")
	v.BindEnv("persistence.saveInterval", "LEDGER_SAVE_INTERVAL")
	v.BindEnv("cache.enabled", "LEDGER_CACHE_ENABLED")
	v.BindEnv("cache.size", "LEDGER_CACHE_SIZE")
	v.BindEnv("access.apiKey", "LEDGER_API_KEY")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "FingerprintLedger"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
