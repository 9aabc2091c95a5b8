package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/voxelkit/regionkit/internal/format"
)

// Config carries the tunable limits of an open level. Zero values take
// the defaults from DefaultConfig.
type Config struct {
	// Compression selects the record compression tag for chunk writes:
	// "gzip", "zlib" or "stored".
	Compression string `yaml:"compression"`

	// CacheDB is the revision database filename, relative to the level
	// directory.
	CacheDB string `yaml:"cache_db"`

	// MaxCachedChunks bounds the in-memory working set. When a load
	// pushes the cache past this count, clean chunks are evicted. Zero
	// means unbounded.
	MaxCachedChunks int `yaml:"max_cached_chunks"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Compression: "zlib",
		CacheDB:     "revisions.db",
	}
}

// LoadConfig reads a YAML config file. Missing keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Compression == "" {
		cfg.Compression = "zlib"
	}
	if cfg.CacheDB == "" {
		cfg.CacheDB = "revisions.db"
	}
	return cfg, nil
}

func (c Config) compressionTag() (byte, error) {
	switch c.Compression {
	case "gzip":
		return format.CompressionGzip, nil
	case "zlib", "":
		return format.CompressionZlib, nil
	case "stored":
		return format.CompressionStored, nil
	default:
		return 0, fmt.Errorf("config: unknown compression %q", c.Compression)
	}
}
