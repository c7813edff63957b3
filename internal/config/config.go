// Package config loads runtime configuration from a YAML file. Every field
// has a coded default so the simulation runs with no file at all; secrets
// (the admin key) come from the environment, never the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings.
type Config struct {
	RegionName string `yaml:"region_name"`
	Seed       int64  `yaml:"seed"`

	RegionGridWidth  int `yaml:"region_grid_width"`
	RegionGridHeight int `yaml:"region_grid_height"`
	MaxCities        int `yaml:"max_cities"`
	CityWidth        int `yaml:"city_width"`
	CityHeight       int `yaml:"city_height"`

	TickIntervalMs int     `yaml:"tick_interval_ms"`
	Speed          float64 `yaml:"speed"`

	DBPath      string `yaml:"db_path"`
	ArchiveDir  string `yaml:"archive_dir"`
	CatalogPath string `yaml:"catalog_path"` // Empty = embedded default set
	APIPort     int    `yaml:"api_port"`
}

// Default returns the coded defaults.
func Default() Config {
	return Config{
		RegionName:       "New Harbor",
		Seed:             42,
		RegionGridWidth:  4,
		RegionGridHeight: 4,
		MaxCities:        9,
		CityWidth:        64,
		CityHeight:       64,
		TickIntervalMs:   1000,
		Speed:            1.0,
		DBPath:           "data/gridtown.db",
		ArchiveDir:       "data/archives",
		APIPort:          8080,
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error — the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// TickInterval returns the base tick interval as a duration.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}
