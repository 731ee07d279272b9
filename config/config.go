package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full run configuration.
type Config struct {
	BaseURL       string
	PaginationURL string // page URL template with a single %d placeholder
	StartPage     int
	Delay         time.Duration
	Timeout       time.Duration
	ExchangeRate  float64
	UserAgent     string
	DedupeMaxSize int

	// Sinks. Any of them may be left empty to skip that destination.
	OutputFile       string
	OutputDir        string
	SpreadsheetID    string
	CredentialsPath  string
	SpreadsheetRange string
	DatabaseURL      string

	MetricsAddr string
	Verbose     bool
}

// DefaultConfig returns the defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "https://fashion-studio.dicoding.dev/",
		PaginationURL:    "https://fashion-studio.dicoding.dev/page%d",
		StartPage:        2,
		Delay:            0,
		Timeout:          10 * time.Second,
		ExchangeRate:     16000,
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36",
		DedupeMaxSize:    100000,
		OutputFile:       "products.csv",
		OutputDir:        "output",
		SpreadsheetRange: "Sheet1!A2",
		DatabaseURL:      "",
		MetricsAddr:      "",
		Verbose:          false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.PaginationURL == "" {
		return fmt.Errorf("pagination URL cannot be empty")
	}
	if strings.Count(c.PaginationURL, "%d") != 1 {
		return fmt.Errorf("pagination URL must contain exactly one %%d placeholder")
	}
	if c.StartPage <= 0 {
		return fmt.Errorf("start page must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ExchangeRate <= 0 {
		return fmt.Errorf("exchange rate must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.OutputFile == "" && c.SpreadsheetID == "" && c.DatabaseURL == "" {
		return fmt.Errorf("at least one sink must be configured")
	}
	if c.SpreadsheetID != "" && c.CredentialsPath == "" {
		return fmt.Errorf("spreadsheet sink requires a credentials path")
	}
	return nil
}

// fileConfig is the YAML schema for -config files. Only values that are
// actually set override the in-memory configuration.
type fileConfig struct {
	BaseURL       string  `yaml:"baseUrl"`
	PaginationURL string  `yaml:"paginationUrl"`
	StartPage     *int    `yaml:"startPage"`
	DelayMs       *int    `yaml:"delayMs"`
	TimeoutMs     *int    `yaml:"timeoutMs"`
	ExchangeRate  float64 `yaml:"exchangeRate"`
	UserAgent     string  `yaml:"userAgent"`
	DedupeMaxSize *int    `yaml:"dedupeMaxSize"`

	Output struct {
		File string `yaml:"file"`
		Dir  string `yaml:"dir"`
	} `yaml:"output"`

	Spreadsheet struct {
		ID          string `yaml:"id"`
		Credentials string `yaml:"credentials"`
		Range       string `yaml:"range"`
	} `yaml:"spreadsheet"`

	DatabaseURL string `yaml:"databaseUrl"`
	MetricsAddr string `yaml:"metricsAddr"`
	Verbose     *bool  `yaml:"verbose"`
}

// MergeFile overlays values from a YAML configuration file onto c.
func (c *Config) MergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	if fc.BaseURL != "" {
		c.BaseURL = fc.BaseURL
	}
	if fc.PaginationURL != "" {
		c.PaginationURL = fc.PaginationURL
	}
	if fc.StartPage != nil {
		c.StartPage = *fc.StartPage
	}
	if fc.DelayMs != nil {
		c.Delay = time.Duration(*fc.DelayMs) * time.Millisecond
	}
	if fc.TimeoutMs != nil {
		c.Timeout = time.Duration(*fc.TimeoutMs) * time.Millisecond
	}
	if fc.ExchangeRate != 0 {
		c.ExchangeRate = fc.ExchangeRate
	}
	if fc.UserAgent != "" {
		c.UserAgent = fc.UserAgent
	}
	if fc.DedupeMaxSize != nil {
		c.DedupeMaxSize = *fc.DedupeMaxSize
	}
	if fc.Output.File != "" {
		c.OutputFile = fc.Output.File
	}
	if fc.Output.Dir != "" {
		c.OutputDir = fc.Output.Dir
	}
	if fc.Spreadsheet.ID != "" {
		c.SpreadsheetID = fc.Spreadsheet.ID
	}
	if fc.Spreadsheet.Credentials != "" {
		c.CredentialsPath = fc.Spreadsheet.Credentials
	}
	if fc.Spreadsheet.Range != "" {
		c.SpreadsheetRange = fc.Spreadsheet.Range
	}
	if fc.DatabaseURL != "" {
		c.DatabaseURL = fc.DatabaseURL
	}
	if fc.MetricsAddr != "" {
		c.MetricsAddr = fc.MetricsAddr
	}
	if fc.Verbose != nil {
		c.Verbose = *fc.Verbose
	}
	return nil
}

// EnvString reads a string environment variable, reporting presence.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment variable, reporting presence.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, true, nil
}

// EnvFloat reads a float environment variable, reporting presence.
func EnvFloat(key string) (float64, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return parsed, true, nil
}
