package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/sing3demons/go-order-admin/pkg/kafka"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

type Config struct {
	App        AppConfig    `yaml:"app"`
	Server     ServerConfig `yaml:"server"`
	Mongo      MongoConfig  `yaml:"mongo"`
	Store      StoreConfig  `yaml:"store"`
	Auth       AuthConfig   `yaml:"auth"`
	Log        LogConfig    `yaml:"log"`
	Kafka      kafka.Config `yaml:"kafka"`
	TracerHost string       `yaml:"tracer_host"`
}

type AppConfig struct {
	Name          string `yaml:"name"`
	Version       string `yaml:"version"`
	ComponentName string `yaml:"component_name"`
	HostName      string `yaml:"host_name"`
}

type ServerConfig struct {
	AppPort        string        `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type MongoConfig struct {
	URI      string        `yaml:"uri"`
	Host     string        `yaml:"host"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
}

// AuthConfig guards the admin routes. An empty secret leaves every route open.
type AuthConfig struct {
	AdminJWTSecret string `yaml:"admin_jwt_secret"`
}

type LogConfig struct {
	App     LogFile `yaml:"app"`
	Detail  LogFile `yaml:"detail"`
	Summary LogFile `yaml:"summary"`
}

type LogFile struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

type IConfig interface {
	Get(string) string
	GetOrDefault(string, string) string
}

func NewConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:          "order-admin",
			Version:       "v1.0.0",
			ComponentName: "order-service",
		},
		Server: ServerConfig{
			AppPort:        "8080",
			RequestTimeout: 10 * time.Second,
		},
		Mongo: MongoConfig{
			Database: "bookstore",
			Timeout:  10 * time.Second,
		},
		Store: StoreConfig{Driver: StoreDriverMongo},
		Log: LogConfig{
			App:     LogFile{Name: "app", Level: "info", Console: true},
			Detail:  LogFile{Name: "detail", Level: "info", Console: true},
			Summary: LogFile{Name: "summary", Level: "info", Console: true},
		},
		Kafka: kafka.Config{
			BatchSize:    kafka.DefaultBatchSize,
			BatchBytes:   kafka.DefaultBatchBytes,
			BatchTimeout: kafka.DefaultBatchTimeout,
		},
	}
}

// LoadYAML overlays the values found in a YAML file onto c.
func (c *Config) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// LoadEnv reads the env files of configFolder into the process environment and
// then copies every known key onto c. Keys that are unset keep their current value.
func (c *Config) LoadEnv(configFolder string) {
	NewEnvFile(configFolder)

	c.App.Name = c.GetOrDefault("APP_NAME", c.App.Name)
	c.App.Version = c.GetOrDefault("APP_VERSION", c.App.Version)
	c.App.ComponentName = c.GetOrDefault("COMPONENT_NAME", c.App.ComponentName)
	c.App.HostName = c.GetOrDefault("HOST_NAME", c.App.HostName)

	c.Server.AppPort = c.GetOrDefault("APP_PORT", c.Server.AppPort)
	c.Server.RequestTimeout = c.durationOrDefault("REQUEST_TIMEOUT", c.Server.RequestTimeout)

	c.Mongo.URI = c.GetOrDefault("MONGO_URI", c.Mongo.URI)
	c.Mongo.Host = c.GetOrDefault("MONGO_HOST", c.Mongo.Host)
	c.Mongo.Database = c.GetOrDefault("MONGO_DATABASE", c.Mongo.Database)
	c.Mongo.Timeout = c.durationOrDefault("MONGO_TIMEOUT", c.Mongo.Timeout)

	c.Store.Driver = c.GetOrDefault("STORE_DRIVER", c.Store.Driver)
	c.Auth.AdminJWTSecret = c.GetOrDefault("ADMIN_JWT_SECRET", c.Auth.AdminJWTSecret)
	c.TracerHost = c.GetOrDefault("TRACER_HOST", c.TracerHost)

	if path := c.Get("LOG_PATH"); path != "" {
		c.Log.App.Path = path
		c.Log.Detail.Path = path + "/detail"
		c.Log.Summary.Path = path + "/summary"
	}
	c.Log.App.Level = c.GetOrDefault("LOG_LEVEL", c.Log.App.Level)

	c.Kafka.Broker = c.GetOrDefault("KAFKA_BROKER", c.Kafka.Broker)
	c.Kafka.ConsumerGroupID = c.GetOrDefault("KAFKA_CONSUMER_GROUP_ID", c.Kafka.ConsumerGroupID)
	c.Kafka.BatchSize = c.intOrDefault("KAFKA_BATCH_SIZE", c.Kafka.BatchSize)
	c.Kafka.BatchBytes = c.intOrDefault("KAFKA_BATCH_BYTES", c.Kafka.BatchBytes)
	c.Kafka.BatchTimeout = c.intOrDefault("KAFKA_BATCH_TIMEOUT", c.Kafka.BatchTimeout)
	c.Kafka.AutoCreateTopic = c.GetOrDefault("KAFKA_AUTO_CREATE_TOPIC", "false") == "true"
}

func (*Config) Get(key string) string {
	return os.Getenv(key)
}

func (*Config) GetOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultValue
}

func (c *Config) intOrDefault(key string, defaultValue int) int {
	v, err := strconv.Atoi(c.Get(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func (c *Config) durationOrDefault(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(c.Get(key))
	if err != nil {
		return defaultValue
	}
	return d
}
