package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config is the top-level configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Librarian LibrarianConfig `mapstructure:"librarian" yaml:"librarian"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// StorageConfig selects where books and users are kept.
type StorageConfig struct {
	Backend      string `mapstructure:"backend" yaml:"backend"` // "json" or "sqlite"
	BooksFile    string `mapstructure:"books_file" yaml:"books_file"`
	UsersFile    string `mapstructure:"users_file" yaml:"users_file"`
	DatabaseFile string `mapstructure:"database_file" yaml:"database_file"`
}

// LibrarianConfig holds the out-of-band librarian secret as a bcrypt hash.
// An empty hash means the built-in default secret.
type LibrarianConfig struct {
	PasswordHash string `mapstructure:"password_hash" yaml:"password_hash"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"` // empty logs to stderr
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join("data", "config.yml")
}

// Load reads the config file at path (or DefaultPath), then LIBRARY_* env
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("storage.backend", BackendJSON)
	v.SetDefault("storage.books_file", filepath.Join("data", "library_data.json"))
	v.SetDefault("storage.users_file", filepath.Join("data", "users_data.json"))
	v.SetDefault("storage.database_file", filepath.Join("data", "library.db"))
	v.SetDefault("librarian.password_hash", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")

	v.SetEnvPrefix("LIBRARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the program cannot act on.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendJSON:
		if c.Storage.BooksFile == "" || c.Storage.UsersFile == "" {
			return errors.New("config: storage.books_file and storage.users_file are required")
		}
	case BackendSQLite:
		if c.Storage.DatabaseFile == "" {
			return errors.New("config: storage.database_file is required")
		}
	default:
		return fmt.Errorf("config: unknown storage.backend %q", c.Storage.Backend)
	}
	return nil
}

// Save writes cfg to path as YAML.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
