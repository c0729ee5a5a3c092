/*
Package config manages TOML config for wordfix.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"time"

	"github.com/bastiangx/wordfix/internal/utils"
	"github.com/bastiangx/wordfix/pkg/dictionary"
	"github.com/bastiangx/wordfix/pkg/resegment"
	"github.com/bastiangx/wordfix/pkg/segment"
	"github.com/charmbracelet/log"
)

// FileName is the default config file name.
const FileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Dict      DictConfig      `toml:"dict"`
	Segment   SegmentConfig   `toml:"segment"`
	Batch     BatchConfig     `toml:"batch"`
	Tokenizer TokenizerConfig `toml:"tokenizer"`
	Server    ServerConfig    `toml:"server"`
}

// DictConfig holds dictionary options.
type DictConfig struct {
	Path          string `toml:"path"`
	Delimiter     string `toml:"delimiter"`
	SkipMalformed bool   `toml:"skip_malformed"`
	MaxWords      int    `toml:"max_words"`
}

// SegmentConfig holds the search limits.
type SegmentConfig struct {
	MaxEditDistance  int `toml:"max_edit_distance"`
	MaxDistanceLimit int `toml:"max_distance_limit"`
	MaxTokenLength   int `toml:"max_token_length"`
	CacheSize        int `toml:"cache_size"`
}

// BatchConfig holds document batch options.
type BatchConfig struct {
	Workers         int      `toml:"workers"`
	DocumentTimeout string   `toml:"document_timeout"`
	Extensions      []string `toml:"extensions"`
	Filter          string   `toml:"filter"`
	OutDir          string   `toml:"out_dir"`
}

// TokenizerConfig selects the lemmatizer and entity list.
type TokenizerConfig struct {
	Lemmatizer string `toml:"lemmatizer"`
	Language   string `toml:"language"`
	Entities   string `toml:"entities"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxTextBytes int `toml:"max_text_bytes"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. platform config dir ($XDG_CONFIG_HOME/wordfix, ~/.config/wordfix, %APPDATA%\wordfix)
// 2. ~/.wordfix, then a temp dir
// 3. Current executable dir
func GetConfigDir() (string, error) {
	resolver, err := utils.NewPathResolver()
	if err != nil {
		log.Errorf("Failed to initialize path resolver: %v", err)
		return utils.GetExecutableDir()
	}
	path, err := resolver.GetConfigPath(FileName)
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, FileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/wordfix/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Dict: DictConfig{
			Path:          "",
			Delimiter:     "",
			SkipMalformed: false,
			MaxWords:      0,
		},
		Segment: SegmentConfig{
			MaxEditDistance:  0,
			MaxDistanceLimit: 2,
			MaxTokenLength:   64,
			CacheSize:        4096,
		},
		Batch: BatchConfig{
			Workers:         0,
			DocumentTimeout: "10s",
			Extensions:      []string{".txt", ".pdf"},
			Filter:          "",
			OutDir:          "",
		},
		Tokenizer: TokenizerConfig{
			Lemmatizer: "identity",
			Language:   "english",
			Entities:   "",
		},
		Server: ServerConfig{
			MaxTextBytes: 1 << 20,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file. Invalid values are reported as errors;
// a file that does not parse as a whole is recovered section by section.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		config, err = tryPartialParse(configPath)
		if err != nil {
			return nil, err
		}
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return config, nil
}

// tryPartialParse attempts to parse a TOML file
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		extractDictConfig(section, &config.Dict)
	}
	if section, ok := utils.ExtractSection(tempConfig, "segment"); ok {
		extractSegmentConfig(section, &config.Segment)
	}
	if section, ok := utils.ExtractSection(tempConfig, "batch"); ok {
		extractBatchConfig(section, &config.Batch)
	}
	if section, ok := utils.ExtractSection(tempConfig, "tokenizer"); ok {
		extractTokenizerConfig(section, &config.Tokenizer)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		if val, ok := utils.ExtractInt64(section, "max_text_bytes"); ok {
			config.Server.MaxTextBytes = val
		}
	}
	return config, nil
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractString(data, "path"); ok {
		dict.Path = val
	}
	if val, ok := utils.ExtractString(data, "delimiter"); ok {
		dict.Delimiter = val
	}
	if val, ok := utils.ExtractBool(data, "skip_malformed"); ok {
		dict.SkipMalformed = val
	}
	if val, ok := utils.ExtractInt64(data, "max_words"); ok {
		dict.MaxWords = val
	}
}

func extractSegmentConfig(data map[string]any, seg *SegmentConfig) {
	if val, ok := utils.ExtractInt64(data, "max_edit_distance"); ok {
		seg.MaxEditDistance = val
	}
	if val, ok := utils.ExtractInt64(data, "max_distance_limit"); ok {
		seg.MaxDistanceLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "max_token_length"); ok {
		seg.MaxTokenLength = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		seg.CacheSize = val
	}
}

func extractBatchConfig(data map[string]any, batch *BatchConfig) {
	if val, ok := utils.ExtractInt64(data, "workers"); ok {
		batch.Workers = val
	}
	if val, ok := utils.ExtractString(data, "document_timeout"); ok {
		batch.DocumentTimeout = val
	}
	if val, ok := utils.ExtractStrings(data, "extensions"); ok {
		batch.Extensions = val
	}
	if val, ok := utils.ExtractString(data, "filter"); ok {
		batch.Filter = val
	}
	if val, ok := utils.ExtractString(data, "out_dir"); ok {
		batch.OutDir = val
	}
}

func extractTokenizerConfig(data map[string]any, tok *TokenizerConfig) {
	if val, ok := utils.ExtractString(data, "lemmatizer"); ok {
		tok.Lemmatizer = val
	}
	if val, ok := utils.ExtractString(data, "language"); ok {
		tok.Language = val
	}
	if val, ok := utils.ExtractString(data, "entities"); ok {
		tok.Entities = val
	}
}

// Validate checks the limits and formats in c.
func (c *Config) Validate() error {
	var errs []error
	s := c.Segment
	if s.MaxDistanceLimit < 0 || s.MaxDistanceLimit > segment.HardMaxEditDistance {
		errs = append(errs, fmt.Errorf("segment.max_distance_limit must be in [0, %d], got %d", segment.HardMaxEditDistance, s.MaxDistanceLimit))
	}
	if s.MaxEditDistance < 0 || s.MaxEditDistance > s.MaxDistanceLimit {
		errs = append(errs, fmt.Errorf("segment.max_edit_distance must be in [0, %d], got %d", s.MaxDistanceLimit, s.MaxEditDistance))
	}
	if s.MaxTokenLength < 0 {
		errs = append(errs, fmt.Errorf("segment.max_token_length must not be negative, got %d", s.MaxTokenLength))
	}
	if s.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("segment.cache_size must not be negative, got %d", s.CacheSize))
	}
	if c.Dict.MaxWords < 0 {
		errs = append(errs, fmt.Errorf("dict.max_words must not be negative, got %d", c.Dict.MaxWords))
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch.workers must not be negative, got %d", c.Batch.Workers))
	}
	if _, err := c.Timeout(); err != nil {
		errs = append(errs, err)
	}
	if c.Batch.Filter != "" {
		if _, err := regexp.Compile(c.Batch.Filter); err != nil {
			errs = append(errs, fmt.Errorf("batch.filter: %w", err))
		}
	}
	if c.Server.MaxTextBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_text_bytes must not be negative, got %d", c.Server.MaxTextBytes))
	}
	return errors.Join(errs...)
}

// Timeout parses batch.document_timeout. An empty value disables the timeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.Batch.DocumentTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Batch.DocumentTimeout)
	if err != nil {
		return 0, fmt.Errorf("batch.document_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("batch.document_timeout must not be negative, got %s", d)
	}
	return d, nil
}

// EngineOptions converts the config into resegmentation options.
func (c *Config) EngineOptions() resegment.Options {
	timeout, err := c.Timeout()
	if err != nil {
		log.Warnf("Ignoring %v", err)
	}
	workers := c.Batch.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return resegment.Options{
		MaxEditDistance:  c.Segment.MaxEditDistance,
		MaxDistanceLimit: c.Segment.MaxDistanceLimit,
		MaxTokenLength:   c.Segment.MaxTokenLength,
		DocumentTimeout:  timeout,
		Workers:          workers,
		CacheSize:        c.Segment.CacheSize,
	}
}

// LoadOptions converts the dict section into loader options.
func (c *Config) LoadOptions() dictionary.LoadOptions {
	return dictionary.LoadOptions{
		Delimiter:     c.Dict.Delimiter,
		SkipMalformed: c.Dict.SkipMalformed,
		MaxWords:      c.Dict.MaxWords,
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	configDir := filepath.Dir(defaultPath)
	if err := utils.EnsureDir(configDir); err != nil {
		return err
	}
	return utils.SaveTOMLFile(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the segment defaults and saves to file. An empty
// configPath only updates the in-memory values.
func (c *Config) Update(configPath string, maxEditDistance, maxTokenLength *int) error {
	next := *c
	if maxEditDistance != nil {
		next.Segment.MaxEditDistance = *maxEditDistance
	}
	if maxTokenLength != nil {
		next.Segment.MaxTokenLength = *maxTokenLength
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	if configPath == "" {
		return nil
	}
	return SaveConfig(c, configPath)
}
