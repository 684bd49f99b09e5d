package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tillpoint/tillpoint/internal/types"
)

func validConfig() Configuration {
	cfg := *GetDefaultConfig()
	cfg.Server.Address = ":8080"
	cfg.Postgres = PostgresConfig{Host: "localhost", Port: 5432, User: "u", DBName: "db"}
	cfg.Auth.Secret = "secret"
	return cfg
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	cfg.Invoice.DefaultCurrency = "dollars"
	assert.Error(t, cfg.Validate())
}

func TestValidateKafkaRequiresBrokers(t *testing.T) {
	cfg := validConfig()
	cfg.Events.PubSub = types.KafkaPubSub
	assert.Error(t, cfg.Validate())

	cfg.Kafka.Brokers = []string{"localhost:9092"}
	assert.NoError(t, cfg.Validate())
}

func TestGetDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5433, User: "app", Password: "pw", DBName: "till", SSLMode: "disable"}
	assert.Equal(t, "user=app password=pw dbname=till host=db port=5433 sslmode=disable", cfg.GetDSN())
}
