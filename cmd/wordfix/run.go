package main

import (
	"fmt"
	"io"
	"time"

	"github.com/bastiangx/wordfix/internal/utils"
	"github.com/bastiangx/wordfix/pkg/config"
	"github.com/bastiangx/wordfix/pkg/corpus"
	"github.com/bastiangx/wordfix/pkg/resegment"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run [paths...]",
	Short: "Resegment files, directories or stdin",
	Long: `Resegment documents. Each path may be a file or a directory; directories
are searched (non-recursively) for files matching --filter and --ext, oldest
first. Without paths, stdin is resegmented to stdout.

With --out, each result is written to a timestamped file in that directory;
otherwise results are written to stdout in input order.`,
	RunE: runResegment,
}

func init() {
	runCmd.Flags().StringSlice("filter", nil, "regular expression file names must match (repeatable)")
	runCmd.Flags().StringSlice("ext", nil, "file extensions to include (default from config)")
	runCmd.Flags().StringP("out", "o", "", "output directory for resegmented files")
	runCmd.Flags().Int("workers", 0, "number of documents processed in parallel")
	cobra.CheckErr(viper.BindPFlag("batch.extensions", runCmd.Flags().Lookup("ext")))
	cobra.CheckErr(viper.BindPFlag("batch.out_dir", runCmd.Flags().Lookup("out")))
	cobra.CheckErr(viper.BindPFlag("batch.workers", runCmd.Flags().Lookup("workers")))
	rootCmd.AddCommand(runCmd)
}

func runResegment(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		out, rep, err := engine.ResegmentDocument(cmd.Context(), string(data))
		if err != nil {
			return err
		}
		logReport("stdin", rep)
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	}

	filters, _ := cmd.Flags().GetStringSlice("filter")
	if cfg.Batch.Filter != "" {
		filters = append(filters, cfg.Batch.Filter)
	}
	paths, err := collectDocuments(args, filters, cfg)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		log.Warn("No files found.")
		return nil
	}

	started := time.Now()
	docs, failed := readDocuments(paths)
	results := engine.ResegmentBatch(cmd.Context(), docs)

	for _, res := range results {
		if res.Err != nil {
			log.Errorf("%s: %v", res.ID, res.Err)
			failed++
			continue
		}
		logReport(res.ID, res.Report)
		if err := emit(cmd.OutOrStdout(), cfg.Batch.OutDir, res, started); err != nil {
			return err
		}
	}

	log.Infof("Resegmented %s of %s documents in %s", utils.FormatWithCommas(len(paths)-failed), utils.FormatWithCommas(len(paths)), time.Since(started).Round(time.Millisecond))
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(paths))
	}
	return nil
}

func collectDocuments(args, filters []string, cfg *config.Config) ([]string, error) {
	filter, err := corpus.NewFilter(filters, cfg.Batch.Extensions)
	if err != nil {
		return nil, err
	}
	return corpus.Collect(args, filter)
}

// readDocuments reads every path. Unreadable documents are logged and counted.
func readDocuments(paths []string) ([]resegment.Document, int) {
	docs := make([]resegment.Document, 0, len(paths))
	failed := 0
	for _, p := range paths {
		text, err := corpus.ReadDocument(p)
		if err != nil {
			log.Errorf("%v", err)
			failed++
			continue
		}
		docs = append(docs, resegment.Document{ID: p, Text: text})
	}
	return docs, failed
}

func emit(w io.Writer, outDir string, res resegment.BatchResult, t time.Time) error {
	if outDir == "" {
		_, err := io.WriteString(w, res.Text)
		return err
	}
	path, err := corpus.WriteDocument(outDir, corpus.OutputName(res.ID, t), res.Text)
	if err != nil {
		return err
	}
	log.Debugf("Wrote %s", path)
	return nil
}

func logReport(id string, rep resegment.Report) {
	log.Debugf("%s: %d tokens, %d eligible, %d split, %d skipped", id, rep.Tokens, rep.Eligible, rep.Segmented, rep.Skipped)
	for _, w := range rep.Warnings {
		log.Warnf("%s: %v", id, w)
	}
}
