package main

import (
	"fmt"
	"os"

	"github.com/bastiangx/wordfix/internal/utils"
	"github.com/bastiangx/wordfix/pkg/resegment"
	"github.com/bastiangx/wordfix/pkg/server"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the msgpack IPC server on stdin/stdout",
	Long: `Run the msgpack IPC server. Requests are read from stdin and responses
written to stdout; logs go to stderr. Changing the default edit distance
through "set_distance" is saved to the config file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("banner", false, "print startup info to stderr")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	if banner, _ := cmd.Flags().GetBool("banner"); banner {
		showStartupInfo(engine)
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(engine, cfg, configPath)
	if err := srv.Start(cmd.Context()); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(engine *resegment.Engine) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	info := engine.Info()
	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, "  wordfix  ")
	fmt.Fprintln(os.Stderr, "===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("words: %s", utils.FormatWithCommas(info.Words))
	log.Infof("distance: %d (limit %d)", info.Distance, info.MaxDistanceLimit)
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "===========")
}
