package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoadEnv_Defaults(t *testing.T) {
	cfg := LoadEnv()

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Ledger.EnforceNonNegative)
	assert.True(t, cfg.Ledger.RecomputeAll)
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.True(t, cfg.Ledger.VarianceEpsilon.Equal(decimal.NewFromFloat(0.01)))
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("LEDGER_ENFORCE_NON_NEGATIVE", "false")
	t.Setenv("LEDGER_MAX_AMOUNT", "5000.50")
	t.Setenv("LEDGER_MAX_RETRIES", "not-a-number")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := LoadEnv()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.False(t, cfg.Ledger.EnforceNonNegative)
	assert.True(t, cfg.Ledger.MaxAmount.Equal(decimal.RequireFromString("5000.50")))
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}
