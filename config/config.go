package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const keyEnv = "ENV"
const envLocal = "local"

const (
	defaultPort           = "8080"
	defaultFacetSize      = 1000
	defaultPageSize       = 20
	defaultMaxPageSize    = 100
	defaultSearchTimeout  = 5 * time.Second
	defaultFuzziness      = 1
	defaultLogLevel       = "info"
	defaultIndexPath      = "projects.bleve"
	defaultKVDBPath       = "facetsearch.db"
	maxSupportedFuzziness = 2
)

type Config struct {
	config *viper.Viper
}

// Load reads config/config.<env>.yaml (env defaults to $ENV, then "local") and
// lets environment variables override individual keys.
func Load(env string) (*Config, error) {

	if len(env) == 0 {
		if env = os.Getenv(keyEnv); len(env) == 0 {
			env = envLocal
		}
	}

	configPath, err := getConfigPath(env)

	viperConfig := viper.New()
	if err == nil {
		viperConfig.SetConfigFile(configPath)
		if err := viperConfig.ReadInConfig(); err != nil {
			slog.Warn(fmt.Sprintf("error reading config file, %s", err))
		}
	}
	viperConfig.AutomaticEnv()

	cfg := &Config{
		config: viperConfig,
	}

	return cfg, nil
}

func (c *Config) GetPort() string {
	return c.getString("PORT", "server.port", defaultPort)
}

func (c *Config) GetStoragePath() string {
	return c.getString("STORAGE_PATH", "database.storage_path", "")
}

// GetIndexPath is relative to the storage path.
func (c *Config) GetIndexPath() string {
	return c.getString("INDEX_PATH", "database.index_path", defaultIndexPath)
}

// GetKVDBPath is relative to the storage path.
func (c *Config) GetKVDBPath() string {
	return c.getString("KVDB_PATH", "database.kvdb_path", defaultKVDBPath)
}

func (c *Config) GetLogLevel() string {
	return c.getString("LOG_LEVEL", "log.level", defaultLogLevel)
}

// GetFacetSize is the maximum number of buckets requested per facet dimension.
func (c *Config) GetFacetSize() int {
	return c.getPositiveInt("FACET_SIZE", "search.facet_size", defaultFacetSize)
}

func (c *Config) GetDefaultPageSize() int {
	return c.getPositiveInt("DEFAULT_PAGE_SIZE", "search.default_page_size", defaultPageSize)
}

func (c *Config) GetMaxPageSize() int {
	return c.getPositiveInt("MAX_PAGE_SIZE", "search.max_page_size", defaultMaxPageSize)
}

func (c *Config) GetSearchTimeout() time.Duration {
	timeout := c.config.GetDuration("SEARCH_TIMEOUT")
	if timeout <= 0 {
		timeout = c.config.GetDuration("search.timeout")
	}
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}

	return timeout
}

// GetFuzziness is the edit distance tolerated for free-text terms, capped at 2.
func (c *Config) GetFuzziness() int {
	fuzziness := defaultFuzziness
	if c.config.IsSet("FUZZINESS") {
		fuzziness = c.config.GetInt("FUZZINESS")
	} else if c.config.IsSet("search.fuzziness") {
		fuzziness = c.config.GetInt("search.fuzziness")
	}

	return max(0, min(fuzziness, maxSupportedFuzziness))
}

func (c *Config) getString(envKey string, fileKey string, fallback string) string {
	value := c.config.GetString(envKey)
	if len(value) == 0 {
		value = c.config.GetString(fileKey)
	}
	if len(value) == 0 {
		value = fallback
	}

	return value
}

func (c *Config) getPositiveInt(envKey string, fileKey string, fallback int) int {
	value := c.config.GetInt(envKey)
	if value <= 0 {
		value = c.config.GetInt(fileKey)
	}
	if value <= 0 {
		value = fallback
	}

	return value
}

func getProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		configDir := filepath.Join(currentDir, "config")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)

		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("could not find project root (directory containing 'config' folder)")
}

func getConfigPath(env string) (string, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	projectRoot, err := getProjectRoot()
	if err != nil {
		slog.Warn("failed to find project root with config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	configPath := filepath.Join(projectRoot, "config", configFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Warn("failed to find config file within config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	return configPath, nil
}
