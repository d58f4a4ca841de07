package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds settings for the crawler and the agent surfaces.
type Config struct {
	SourcesFile   string
	MaxConcurrent int
	PacingDelay   time.Duration
	Timeout       time.Duration
	UserAgent     string
	OutputFile    string // empty means auto-generated snapshot path
	RecordLog     string // optional JSONL stream of records as they complete
	CacheSize     int    // duplicate-URL body cache entries
	MetricsAddr   string
	Verbose       bool

	KnowledgeBase string
	ListenAddr    string
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() *Config {
	return &Config{
		SourcesFile:   "sources/sources.json",
		MaxConcurrent: 5,
		PacingDelay:   time.Second,
		Timeout:       30 * time.Second,
		UserAgent:     "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		OutputFile:    "",
		RecordLog:     "",
		CacheSize:     256,
		MetricsAddr:   "",
		Verbose:       false,
		KnowledgeBase: "rag/knowledge_base.json",
		ListenAddr:    ":5000",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.SourcesFile == "" {
		return fmt.Errorf("sources file cannot be empty")
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max concurrent must be positive")
	}
	if c.PacingDelay < 0 {
		return fmt.Errorf("pacing delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive")
	}
	return nil
}

// EnvString reads a string environment override.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment override.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvDuration reads a duration environment override (e.g. "2s", "500ms").
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}
