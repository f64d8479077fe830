// Package config loads the dashboard configuration from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DefaultBankURL is the remote bank-marketing dataset consumed by the
// real-time dashboard. Fetched at render time; there is no offline fallback.
const DefaultBankURL = "https://raw.githubusercontent.com/Lexie88rus/bank-marketing-analysis/master/bank.csv"

// Config represents the dashboard configuration. Fields are pointers so a
// partial config file overrides only what it names; unset fields take
// defaults. The same JSON shape is accepted on the /api/config endpoint.
type Config struct {
	Listen        *string `json:"listen,omitempty"`
	DataDir       *string `json:"data_dir,omitempty"`
	StorePath     *string `json:"store_path,omitempty"`
	BankURL       *string `json:"bank_url,omitempty"`
	LiveIters     *int    `json:"live_iterations,omitempty"`
	LiveInterval  *string `json:"live_interval,omitempty"` // duration string like "1s"
	MaxUploadMB   *int64  `json:"max_upload_mb,omitempty"`
	StocksCSV     *string `json:"stocks_csv,omitempty"`
	MPGCSV        *string `json:"mpg_csv,omitempty"`
	liveIntervalD time.Duration
}

func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }
func ptrInt64(v int64) *int64    { return &v }

// Default returns a Config with every field populated.
func Default() *Config {
	return &Config{
		Listen:        ptrString(":8080"),
		DataDir:       ptrString("data"),
		StorePath:     ptrString("financer.db"),
		BankURL:       ptrString(DefaultBankURL),
		LiveIters:     ptrInt(200),
		LiveInterval:  ptrString("1s"),
		MaxUploadMB:   ptrInt64(200),
		StocksCSV:     ptrString("all_stocks_5yr.csv"),
		MPGCSV:        ptrString("clean_auto_mpg.csv"),
		liveIntervalD: time.Second,
	}
}

// Load reads a JSON config file and merges it over the defaults. A missing
// path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var overlay Config
	if err := json.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.merge(&overlay)

	if cfg.LiveInterval != nil {
		d, err := time.ParseDuration(*cfg.LiveInterval)
		if err != nil {
			return nil, fmt.Errorf("parse live_interval: %w", err)
		}
		cfg.liveIntervalD = d
	}
	if *cfg.LiveIters < 0 {
		return nil, fmt.Errorf("live_iterations must be >= 0, got %d", *cfg.LiveIters)
	}

	return cfg, nil
}

func (c *Config) merge(o *Config) {
	if o.Listen != nil {
		c.Listen = o.Listen
	}
	if o.DataDir != nil {
		c.DataDir = o.DataDir
	}
	if o.StorePath != nil {
		c.StorePath = o.StorePath
	}
	if o.BankURL != nil {
		c.BankURL = o.BankURL
	}
	if o.LiveIters != nil {
		c.LiveIters = o.LiveIters
	}
	if o.LiveInterval != nil {
		c.LiveInterval = o.LiveInterval
	}
	if o.MaxUploadMB != nil {
		c.MaxUploadMB = o.MaxUploadMB
	}
	if o.StocksCSV != nil {
		c.StocksCSV = o.StocksCSV
	}
	if o.MPGCSV != nil {
		c.MPGCSV = o.MPGCSV
	}
}

// LiveIntervalDuration returns the parsed live-loop pause interval.
func (c *Config) LiveIntervalDuration() time.Duration {
	if c.liveIntervalD == 0 {
		return time.Second
	}
	return c.liveIntervalD
}

// MaxUploadBytes returns the upload cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	mb := int64(200)
	if c.MaxUploadMB != nil {
		mb = *c.MaxUploadMB
	}
	return mb << 20
}
