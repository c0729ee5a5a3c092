package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bastiangx/wordfix/internal/logger"
	"github.com/bastiangx/wordfix/internal/utils"
	"github.com/bastiangx/wordfix/pkg/config"
	"github.com/bastiangx/wordfix/pkg/dictionary"
	"github.com/bastiangx/wordfix/pkg/resegment"
	"github.com/bastiangx/wordfix/pkg/tokenize"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "0.1.0-beta"
	gh      = "https://github.com/bastiangx/wordfix"
)

var (
	cfgFile   string
	debugMode bool

	envReplacer = strings.NewReplacer(".", "_")
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   utils.AppName,
	Short: "Split words that text extraction merged together",
	Long: `wordfix repairs tokens that were merged during text extraction, such as
"climatechange", by splitting them into dictionary words. It never changes
characters: a token is only split when the parts are all dictionary words and
concatenate back to the original.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup(debugMode)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initViper)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is [UserConfigDir]/wordfix/config.toml)")
	flags.BoolVarP(&debugMode, "debug", "d", false, "toggle debug mode")
	flags.String("dict", "", "dictionary file (.txt, .tsv, .csv or .msgpack)")
	flags.String("delimiter", "", "dictionary field delimiter (default: any whitespace)")
	flags.Int("distance", 0, "default edit distance for the segmentation search")
	flags.Int("max-token-length", 0, "longest token, in runes, that will be searched")
	flags.String("lemmatizer", "", "lemmatizer used for dictionary checks (identity, snowball)")
	flags.String("entities", "", "file with one named entity per line; listed tokens are never split")

	for key, flag := range map[string]string{
		"dict.path":                 "dict",
		"dict.delimiter":            "delimiter",
		"segment.max_edit_distance": "distance",
		"segment.max_token_length":  "max-token-length",
		"tokenizer.lemmatizer":      "lemmatizer",
		"tokenizer.entities":        "entities",
	} {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flag)))
	}
}

// initViper makes WORDFIX_* environment variables visible as overrides.
func initViper() {
	viper.SetEnvPrefix("WORDFIX")
	viper.SetEnvKeyReplacer(envReplacer)
	viper.AutomaticEnv()
}

// applyOverrides copies flag and environment values set through viper over the file config.
func applyOverrides(cfg *config.Config, v *viper.Viper) {
	strs := map[string]*string{
		"dict.path":              &cfg.Dict.Path,
		"dict.delimiter":         &cfg.Dict.Delimiter,
		"batch.document_timeout": &cfg.Batch.DocumentTimeout,
		"batch.filter":           &cfg.Batch.Filter,
		"batch.out_dir":          &cfg.Batch.OutDir,
		"tokenizer.lemmatizer":   &cfg.Tokenizer.Lemmatizer,
		"tokenizer.language":     &cfg.Tokenizer.Language,
		"tokenizer.entities":     &cfg.Tokenizer.Entities,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	ints := map[string]*int{
		"dict.max_words":             &cfg.Dict.MaxWords,
		"segment.max_edit_distance":  &cfg.Segment.MaxEditDistance,
		"segment.max_distance_limit": &cfg.Segment.MaxDistanceLimit,
		"segment.max_token_length":   &cfg.Segment.MaxTokenLength,
		"segment.cache_size":         &cfg.Segment.CacheSize,
		"batch.workers":              &cfg.Batch.Workers,
		"server.max_text_bytes":      &cfg.Server.MaxTextBytes,
	}
	for key, dst := range ints {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}

	if v.IsSet("dict.skip_malformed") {
		cfg.Dict.SkipMalformed = v.GetBool("dict.skip_malformed")
	}
	if v.IsSet("batch.extensions") {
		cfg.Batch.Extensions = v.GetStringSlice("batch.extensions")
	}
}

// loadConfig loads the TOML config and applies flag and environment overrides.
func loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.LoadConfigWithPriority(cfgFile)
	if err != nil {
		return nil, "", err
	}
	applyOverrides(cfg, viper.GetViper())
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(path))
	return cfg, path, nil
}

// loadDictionary resolves and loads the configured dictionary.
func loadDictionary(cfg *config.Config) (*dictionary.Dictionary, error) {
	resolver, err := utils.NewPathResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize path resolver: %w", err)
	}
	path, err := resolver.ResolveDictionary(cfg.Dict.Path)
	if err != nil {
		if errors.Is(err, utils.ErrDictionaryNotFound) && cfg.Dict.Path == "" {
			return nil, fmt.Errorf("%w: pass --dict or set dict.path", err)
		}
		return nil, err
	}

	dict, err := dictionary.Load(path, cfg.LoadOptions())
	if err != nil {
		return nil, err
	}
	log.Debugf("Loaded %s words from %s", utils.FormatWithCommas(dict.Len()), path)
	return dict, nil
}

// newTokenizer builds the default tokenizer from the tokenizer section.
func newTokenizer(cfg *config.Config) (*tokenize.Default, error) {
	lemmatizer, err := tokenize.NewLemmatizer(cfg.Tokenizer.Lemmatizer, cfg.Tokenizer.Language)
	if err != nil {
		return nil, err
	}
	opts := []tokenize.Option{tokenize.WithLemmatizer(lemmatizer)}
	if cfg.Tokenizer.Entities != "" {
		gazetteer, err := tokenize.LoadGazetteer(cfg.Tokenizer.Entities)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tokenize.WithEntities(gazetteer))
	}
	return tokenize.New(opts...), nil
}

// newEngine loads everything a resegmentation run needs.
func newEngine(cfg *config.Config) (*resegment.Engine, error) {
	dict, err := loadDictionary(cfg)
	if err != nil {
		return nil, err
	}
	tk, err := newTokenizer(cfg)
	if err != nil {
		return nil, err
	}
	return resegment.NewEngine(dict, tk, cfg.EngineOptions())
}
