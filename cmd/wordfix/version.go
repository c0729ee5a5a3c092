package main

import (
	"os"
	"sort"

	"github.com/bastiangx/wordfix/internal/utils"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		printVersion(verbose)
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "also show resolved paths and runtime info")
	rootCmd.AddCommand(versionCmd)
}

func printVersion(verbose bool) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ wordfix ] Splits merged words back apart")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available commands")
	logger.Print("Github Repo", "gh", gh)

	if !verbose {
		return
	}
	resolver, err := utils.NewPathResolver()
	if err != nil {
		logger.Error("Failed to initialize path resolver", "err", err)
		return
	}
	info := resolver.GetRuntimeInfo()
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	logger.Print("")
	for _, k := range keys {
		logger.Print(k, "value", info[k])
	}
}
