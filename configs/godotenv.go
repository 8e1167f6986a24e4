package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultFileName         = "/.env"
	defaultOverrideFileName = "/.local.env"
)

type EnvLoader struct{}

// NewEnvFile loads <folder>/.env, then overrides it with <folder>/.local.env or
// <folder>/.<APP_ENV>.env. Variables already present in the process win over both.
func NewEnvFile(configFolder string) *EnvLoader {
	e := &EnvLoader{}
	e.read(configFolder)
	return e
}

func (e *EnvLoader) read(folder string) {
	var (
		defaultFile  = folder + defaultFileName
		overrideFile = folder + defaultOverrideFileName
		env          = e.Get("APP_ENV")
	)

	system := make(map[string]string)
	for _, envVar := range os.Environ() {
		if key, value, found := strings.Cut(envVar, "="); found {
			system[key] = value
		}
	}

	err := godotenv.Load(defaultFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("Failed to load config from file: %v, Err: %v", defaultFile, err)
		}

		log.Printf("Failed to load config from file: %v, Err: %v", defaultFile, err)
	} else {
		log.Printf("Loaded config from file: %v", defaultFile)
	}

	if env != "" {
		overrideFile = fmt.Sprintf("%s/.%s.env", folder, env)
	}

	err = godotenv.Overload(overrideFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("Failed to load config from file: %v, Err: %v", overrideFile, err)
		}
	} else {
		log.Printf("Loaded config from file: %v", overrideFile)
	}

	for key, value := range system {
		os.Setenv(key, value)
	}
}

func (*EnvLoader) Get(key string) string {
	return os.Getenv(key)
}

func (*EnvLoader) GetOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultValue
}
