// Package main implements cr, a git-friendly memory journal for coding agents.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/crumbs/internal/config"
	"github.com/fyrsmithlabs/crumbs/internal/workspace"
)

var (
	// configPath overrides ~/.config/crumbs/config.yaml
	configPath string
	// outputJSON switches every command to JSON output
	outputJSON bool
	// verbose forces debug logging
	verbose bool
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

const rootLong = `crumbs - Tiny, git-friendly memory CLI for coding agents

Record short atomic memories with "cr what" and "cr why", then bookmark
them with "cr handoff mark" so the next session can "cr handoff open".`

var rootCmd = &cobra.Command{
	Use:           "cr",
	Short:         "Tiny, git-friendly memory CLI for coding agents",
	Long:          rootLong,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOnboarding,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/crumbs/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd == rootCmd {
			if block, err := onboardingBlock(); err == nil {
				cmd.Long = rootLong + "\n\n" + block
			}
		}
		defaultHelp(cmd, args)
	})
}

// onboardingBlock describes how to start, depending on whether a store
// already exists for the current directory.
func onboardingBlock() (string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	ws, err := workspace.Detect(cwd, cfg.Store.DirName)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Onboarding:\n")
	if ws.StoreExists() {
		fmt.Fprintf(&b, "  Detected %s at: %s\n", cfg.Store.DirName, ws.StoreDir())
		b.WriteString("  Run: cr handoff open\n")
	} else {
		b.WriteString("  If no store exists yet, start with the following when needed:\n")
		b.WriteString("    cr what \"<fact/constraint/change>\"\n")
		b.WriteString("    cr why \"<decision/rationale>\"\n")
		b.WriteString("  If you need to create a checkpoint:\n")
		fmt.Fprintf(&b, "    cr handoff mark --window %d\n", cfg.Handoff.Window)
	}
	b.WriteString("  The checkpoint is there to group memories for later use to get up to speed")
	return b.String(), nil
}

func runOnboarding(cmd *cobra.Command, args []string) error {
	block, err := onboardingBlock()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), block)
	return nil
}
