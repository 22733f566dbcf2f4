package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/gyeh/billaudit/internal/audit"
	"github.com/gyeh/billaudit/internal/normalize"
)

// SourceMode selects where the audit input comes from.
type SourceMode int

const (
	SourceNone SourceMode = iota
	SourceJSON
	SourceParquet
	SourceCase
)

func (m SourceMode) String() string {
	switch m {
	case SourceJSON:
		return "json"
	case SourceParquet:
		return "parquet"
	case SourceCase:
		return "case"
	default:
		return "none"
	}
}

// Config holds all runtime configuration for a billaudit run.
type Config struct {
	DSN       string
	LogFormat string // "text" or "json"
	LogLevel  string

	InputPath         string // JSON input
	BillPath          string // parquet bill items
	AuthorizationPath string // parquet authorization lines
	ContractPath      string // YAML contract, paired with the parquet files
	CaseID            string // stored case in Postgres

	ConfigPath     string
	OutputPath     string // "-" for stdout
	ReportDir      string
	Label          string
	Force          bool // store a case even if the same input was stored before
	FailOnFindings bool

	// Engine tuning. Zero values fall back to the file, then to the engine defaults.
	Workers            int
	OpacityThreshold   int
	SystemicM3Fraction *decimal.Decimal
	GenericBucketCodes []string
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	OpacityThreshold   *int     `yaml:"opacity_threshold"`
	SystemicM3Fraction *float64 `yaml:"systemic_m3_fraction"`
	GenericBucketCodes []string `yaml:"generic_bucket_codes"`
	Workers            *int     `yaml:"workers"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Values already set from flags are kept.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if yc.OpacityThreshold != nil {
		if *yc.OpacityThreshold <= 0 {
			return fmt.Errorf("opacity_threshold must be positive, got %d", *yc.OpacityThreshold)
		}
		if c.OpacityThreshold == 0 {
			c.OpacityThreshold = *yc.OpacityThreshold
		}
	}
	if yc.SystemicM3Fraction != nil {
		if *yc.SystemicM3Fraction < 0 || *yc.SystemicM3Fraction > 1 {
			return fmt.Errorf("systemic_m3_fraction must be within [0, 1], got %v", *yc.SystemicM3Fraction)
		}
		if c.SystemicM3Fraction == nil {
			f := decimal.NewFromFloat(*yc.SystemicM3Fraction)
			c.SystemicM3Fraction = &f
		}
	}
	if yc.Workers != nil {
		if *yc.Workers < 1 {
			return fmt.Errorf("workers must be at least 1, got %d", *yc.Workers)
		}
		if c.Workers == 0 {
			c.Workers = *yc.Workers
		}
	}
	if len(yc.GenericBucketCodes) > 0 && len(c.GenericBucketCodes) == 0 {
		for _, code := range yc.GenericBucketCodes {
			if normalize.NormalizeCode(code) == "" {
				return fmt.Errorf("empty generic bucket code in config")
			}
		}
		c.GenericBucketCodes = yc.GenericBucketCodes
	}
	return nil
}

// Mode reports the selected input source, or an error when the source flags
// are missing or combined.
func (c *Config) Mode() (SourceMode, error) {
	parquet := c.BillPath != "" || c.AuthorizationPath != "" || c.ContractPath != ""
	set := 0
	mode := SourceNone
	if c.InputPath != "" {
		set++
		mode = SourceJSON
	}
	if parquet {
		set++
		mode = SourceParquet
	}
	if c.CaseID != "" {
		set++
		mode = SourceCase
	}
	switch {
	case set == 0:
		return SourceNone, fmt.Errorf("one of --input, --bill/--authorization/--contract or --case is required")
	case set > 1:
		return SourceNone, fmt.Errorf("--input, --bill/--authorization/--contract and --case are mutually exclusive")
	}
	if mode == SourceParquet && (c.BillPath == "" || c.AuthorizationPath == "" || c.ContractPath == "") {
		return SourceNone, fmt.Errorf("--bill, --authorization and --contract must be given together")
	}
	return mode, nil
}

// Validate checks the input source and tuning values.
func (c *Config) Validate() error {
	mode, err := c.Mode()
	if err != nil {
		return err
	}
	switch mode {
	case SourceJSON:
		if err := accessible(c.InputPath); err != nil {
			return err
		}
	case SourceParquet:
		for _, p := range []string{c.BillPath, c.AuthorizationPath, c.ContractPath} {
			if err := accessible(p); err != nil {
				return err
			}
		}
	case SourceCase:
		if _, err := uuid.Parse(c.CaseID); err != nil {
			return fmt.Errorf("--case is not a valid case id: %w", err)
		}
		if c.DSN == "" {
			return fmt.Errorf("--dsn or BILLAUDIT_DB_URL is required with --case")
		}
	}
	if c.OpacityThreshold < 0 {
		return fmt.Errorf("--opacity-threshold must be positive, got %d", c.OpacityThreshold)
	}
	if c.Workers < 0 {
		return fmt.Errorf("--workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// ValidateWithDSN checks that a DSN is present.
func (c *Config) ValidateWithDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or BILLAUDIT_DB_URL is required")
	}
	return nil
}

// EngineOptions converts the run configuration into audit options. Per-input
// config blocks are applied later by the engine itself.
func (c *Config) EngineOptions() audit.Options {
	opts := audit.DefaultOptions()
	if c.OpacityThreshold > 0 {
		opts.OpacityThreshold = c.OpacityThreshold
	}
	if c.SystemicM3Fraction != nil {
		opts.SystemicM3Fraction = *c.SystemicM3Fraction
	}
	if len(c.GenericBucketCodes) > 0 {
		opts.GenericBucketCodes = append([]string(nil), c.GenericBucketCodes...)
	}
	if c.Workers > 0 {
		opts.Workers = c.Workers
	}
	return opts
}

func accessible(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return nil
}
