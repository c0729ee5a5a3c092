package main

import (
	"errors"
	"fmt"

	"github.com/bastiangx/wordfix/internal/utils"
	"github.com/bastiangx/wordfix/pkg/corpus"
	"github.com/bastiangx/wordfix/pkg/dictionary"
	"github.com/bastiangx/wordfix/pkg/resegment"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var augmentCmd = &cobra.Command{
	Use:   "augment [paths...] --out FILE",
	Short: "Add the words of a corpus to the dictionary",
	Long: `Add every alphabetic token of the given documents to the dictionary with
frequency 1 and write the result to --out. Existing words keep their
frequency. Named entities and single letters are left out.

Without a configured dictionary, augment starts from an empty one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAugment,
}

func init() {
	augmentCmd.Flags().StringP("out", "o", "", "file to write the augmented dictionary to (.txt, .tsv, .csv or .msgpack)")
	augmentCmd.Flags().StringSlice("filter", nil, "regular expression file names must match (repeatable)")
	cobra.CheckErr(augmentCmd.MarkFlagRequired("out"))
	rootCmd.AddCommand(augmentCmd)
}

func runAugment(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	if dictionary.FormatForPath(out) == dictionary.FormatUnknown {
		return fmt.Errorf("unsupported dictionary format for %s", out)
	}

	dict, err := loadDictionary(cfg)
	if err != nil {
		if !errors.Is(err, utils.ErrDictionaryNotFound) || cfg.Dict.Path != "" {
			return err
		}
		log.Warn("No dictionary found, starting from an empty one")
		dict = dictionary.New()
	}
	tokenizer, err := newTokenizer(cfg)
	if err != nil {
		return err
	}

	filters, _ := cmd.Flags().GetStringSlice("filter")
	paths, err := collectDocuments(args, filters, cfg)
	if err != nil {
		return err
	}

	before := dict.Len()
	for _, p := range paths {
		text, err := corpus.ReadDocument(p)
		if err != nil {
			log.Errorf("%v", err)
			continue
		}
		if _, err := resegment.AugmentFromText(dict, tokenizer, text); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		log.Debugf("Augmented from %s", p)
	}

	if err := dict.Save(out, cfg.Dict.Delimiter); err != nil {
		return err
	}
	log.Infof("Added %s words from %s documents (%s total) to %s",
		utils.FormatWithCommas(dict.Len()-before), utils.FormatWithCommas(len(paths)), utils.FormatWithCommas(dict.Len()), out)
	return nil
}
