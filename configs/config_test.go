package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"APP_ENV", "APP_NAME", "APP_VERSION", "APP_PORT", "REQUEST_TIMEOUT",
	"MONGO_URI", "MONGO_HOST", "MONGO_DATABASE", "MONGO_TIMEOUT", "STORE_DRIVER",
	"ADMIN_JWT_SECRET", "TRACER_HOST", "LOG_PATH", "LOG_LEVEL",
	"KAFKA_BROKER", "KAFKA_CONSUMER_GROUP_ID", "KAFKA_BATCH_SIZE",
}

// clearEnv unsets the config keys for the test and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig()

	assert.Equal(t, "8080", c.Server.AppPort)
	assert.Equal(t, 10*time.Second, c.Server.RequestTimeout)
	assert.Equal(t, "bookstore", c.Mongo.Database)
	assert.Equal(t, StoreDriverMongo, c.Store.Driver)
	assert.Empty(t, c.Auth.AdminJWTSecret)
	assert.Empty(t, c.Kafka.Broker)
}

func TestLoadEnvLayers(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, ".env", "APP_PORT=9090\nSTORE_DRIVER=memory\nREQUEST_TIMEOUT=3s\nKAFKA_BATCH_SIZE=abc\nADMIN_JWT_SECRET=from-file\n")
	writeFile(t, dir, ".local.env", "APP_PORT=9191\n")
	t.Setenv("ADMIN_JWT_SECRET", "from-process")

	c := NewConfig()
	c.LoadEnv(dir)

	assert.Equal(t, "9191", c.Server.AppPort)
	assert.Equal(t, StoreDriverMemory, c.Store.Driver)
	assert.Equal(t, 3*time.Second, c.Server.RequestTimeout)
	assert.Equal(t, NewConfig().Kafka.BatchSize, c.Kafka.BatchSize)
	assert.Equal(t, "from-process", c.Auth.AdminJWTSecret)
}

func TestLoadEnvUsesAppEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, ".env", "MONGO_DATABASE=bookstore\n")
	writeFile(t, dir, ".local.env", "MONGO_DATABASE=local\n")
	writeFile(t, dir, ".staging.env", "MONGO_DATABASE=staging\nLOG_PATH=/var/log/orders\n")
	t.Setenv("APP_ENV", "staging")

	c := NewConfig()
	c.LoadEnv(dir)

	assert.Equal(t, "staging", c.Mongo.Database)
	assert.Equal(t, "/var/log/orders", c.Log.App.Path)
	assert.Equal(t, "/var/log/orders/detail", c.Log.Detail.Path)
	assert.Equal(t, "/var/log/orders/summary", c.Log.Summary.Path)
}

func TestLoadEnvWithoutFiles(t *testing.T) {
	clearEnv(t)

	c := NewConfig()
	c.LoadEnv(t.TempDir())

	assert.Equal(t, NewConfig().Server, c.Server)
	assert.Equal(t, NewConfig().Store, c.Store)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
app:
  name: orders
server:
  port: "7070"
mongo:
  database: shop
store:
  driver: memory
auth:
  admin_jwt_secret: s3cret
`)

	c := NewConfig()
	require.NoError(t, c.LoadYAML(filepath.Join(dir, "config.yaml")))

	assert.Equal(t, "orders", c.App.Name)
	assert.Equal(t, "7070", c.Server.AppPort)
	assert.Equal(t, 10*time.Second, c.Server.RequestTimeout)
	assert.Equal(t, "shop", c.Mongo.Database)
	assert.Equal(t, StoreDriverMemory, c.Store.Driver)
	assert.Equal(t, "s3cret", c.Auth.AdminJWTSecret)

	assert.Error(t, c.LoadYAML(filepath.Join(dir, "missing.yaml")))
}
