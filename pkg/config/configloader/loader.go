// Package configloader loads service configuration from a YAML file, a .env file and environment variables.
package configloader

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultConfigFile = "config.yaml"
	defaultEnvFile    = ".env"
)

type Validator interface {
	Validate() error
}

// Load reads the YAML file, then the .env file, then <SERVICE>_* variables; later sources win.
// The file locations default to config.yaml and .env in the working directory and can be
// moved with <SERVICE>_CONFIG_FILE and <SERVICE>_ENV_FILE.
func Load[T Validator](serviceName string) (T, error) {
	p := prefix(serviceName)
	return LoadFrom[T](serviceName, getenv(p+"CONFIG_FILE", defaultConfigFile), getenv(p+"ENV_FILE", defaultEnvFile))
}

// LoadFrom is Load with explicit file locations. Missing files are skipped.
func LoadFrom[T Validator](serviceName, configFile, envFile string) (T, error) {
	var cfg T
	k := koanf.New(".")
	p := prefix(serviceName)

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !os.IsNotExist(err) {
		log.Printf("WARN: error loading YAML config file '%s': %v", configFile, err)
	}

	if values, err := godotenv.Read(envFile); err == nil {
		if err := k.Load(confmap.Provider(envFileKeys(p, values), "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	if err := k.Load(env.Provider(p, ".", func(key string) string { return toKey(p, key) }), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// prefix is <SERVICE>_, e.g. STORE_ for "store".
func prefix(serviceName string) string {
	return strings.ToUpper(serviceName) + "_"
}

// toKey maps STORE_DATABASE_URL to database.url. Variables that locate the
// config files map to an empty key and are dropped.
func toKey(prefix, name string) string {
	rest := strings.TrimPrefix(strings.ToUpper(name), prefix)
	if rest == "CONFIG_FILE" || rest == "ENV_FILE" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(rest), "_", ".")
}

func envFileKeys(prefix string, values map[string]string) map[string]any {
	keys := make(map[string]any, len(values))
	for name, value := range values {
		if !strings.HasPrefix(strings.ToUpper(name), prefix) {
			continue
		}
		if key := toKey(prefix, name); key != "" {
			keys[key] = value
		}
	}
	return keys
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
