package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the main configuration for kb.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Storage    StorageConfig    `toml:"storage"`
	Upload     UploadConfig     `toml:"upload"`
	Pagination PaginationConfig `toml:"pagination"`
	Encryption EncryptionConfig `toml:"encryption"`
	CORS       CORSConfig       `toml:"cors"`
	Log        LogConfig        `toml:"log"`
	Import     ImportConfig     `toml:"import"`
}

// ServerConfig holds HTTP listener settings. Timeouts are in seconds.
type ServerConfig struct {
	Addr                   string `toml:"addr"`
	ReadTimeoutSeconds     int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `toml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

// DatabaseConfig represents configuration for the metadata database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// StorageConfig represents configuration for the content store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StorageConfig struct {
	Type string `toml:"type"` // "filesystem", "memory", or "s3"

	// Filesystem-specific fields (only used when Type == "filesystem")
	Root string `toml:"root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3ForcePathStyle  bool   `toml:"s3_force_path_style,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// UploadConfig bounds accepted uploads.
type UploadConfig struct {
	MaxFileSize int64  `toml:"max_file_size"`     // bytes
	SpoolDir    string `toml:"spool_dir,omitempty"` // empty means os.TempDir()
}

// PaginationConfig sets the page size used when a request does not give one.
type PaginationConfig struct {
	DefaultSize int `toml:"default_size"`
	MaxSize     int `toml:"max_size"`
}

// EncryptionConfig holds paths to the age key pair used for at-rest encryption.
type EncryptionConfig struct {
	Enabled        bool   `toml:"enabled"`
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// CORSConfig lists origins allowed to call the HTTP API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn" or "error"
}

// ImportConfig holds settings for bulk import of local directories.
type ImportConfig struct {
	Ignore []string `toml:"ignore"`
}

// Defaults applied by NewConfig.
const (
	DefaultAddr        = ":8080"
	DefaultMaxFileSize = 100 << 20
	DefaultPageSize    = 20
	DefaultMaxPageSize = 100
)

// NewConfig creates a new Config rooted at baseDir with default settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Server: ServerConfig{
			Addr:                   DefaultAddr,
			ReadTimeoutSeconds:     30,
			WriteTimeoutSeconds:    300,
			ShutdownTimeoutSeconds: 10,
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
		Storage:  StorageConfig{Type: "filesystem", Root: filepath.Join(baseDir, "files")},
		Upload:   UploadConfig{MaxFileSize: DefaultMaxFileSize},
		Pagination: PaginationConfig{
			DefaultSize: DefaultPageSize,
			MaxSize:     DefaultMaxPageSize,
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "kb.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "kb.key"),
		},
		CORS:   CORSConfig{AllowedOrigins: []string{"*"}},
		Log:    LogConfig{Level: "info"},
		Import: ImportConfig{Ignore: []string{".git", ".DS_Store"}},
	}
}

// Validate checks the configuration for values the application cannot start with.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Database),
		validation.Field(&c.Storage),
		validation.Field(&c.Upload),
		validation.Field(&c.Pagination),
		validation.Field(&c.Encryption),
		validation.Field(&c.Log),
	)
}

func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required, validation.In("sqlite", "memory")),
		validation.Field(&c.DataDir, validation.When(c.Type == "sqlite", validation.Required)),
	)
}

func (c StorageConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required, validation.In("filesystem", "memory", "s3")),
		validation.Field(&c.Root, validation.When(c.Type == "filesystem", validation.Required)),
		validation.Field(&c.S3Bucket, validation.When(c.Type == "s3", validation.Required)),
		validation.Field(&c.S3SecretAccessKey, validation.When(c.S3AccessKeyID != "", validation.Required)),
	)
}

func (c UploadConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxFileSize, validation.Required, validation.Min(int64(1))),
	)
}

func (c PaginationConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DefaultSize, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxSize, validation.Required, validation.Min(c.DefaultSize)),
	)
}

func (c EncryptionConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.When(c.Enabled, validation.In("", "age", "test"))),
		validation.Field(&c.PublicKeyPath, validation.When(c.Enabled && c.Type != "test", validation.Required)),
		validation.Field(&c.PrivateKeyPath, validation.When(c.Enabled && c.Type != "test", validation.Required)),
	)
}

func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.In("", "debug", "info", "warn", "error")),
	)
}

// Timeout converts a seconds setting to a duration, using fallback when unset.
func Timeout(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads and validates a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
