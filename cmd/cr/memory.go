package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/crumbs/internal/journal"
)

var (
	// find command flags
	findLimit int
)

func init() {
	rootCmd.AddCommand(whatCmd)
	rootCmd.AddCommand(whyCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(findCmd)

	findCmd.Flags().IntVar(&findLimit, "limit", 20, "Max results (default from find.limit)")
}

var whatCmd = &cobra.Command{
	Use:   "what [text]",
	Short: "Record a WHAT: constraints/facts/gotchas (short, atomic)",
	Long: `Record a WHAT: a constraint, fact, change or gotcha.

Text is at most 100 characters on a single line. If omitted it is read
from stdin.

Text that looks like a credential (API keys, tokens, private keys) is
rejected by the secret guard. Turn it off with secrets.enabled: false, or
allowlist a false positive under [allowlist] regexes in .gitleaks.toml at
the store root.

Examples:
  cr what "integration tests need SEED=1"
  echo "staging uses port 8081" | cr what`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdd(cmd, journal.KindWhat, args)
	},
}

var whyCmd = &cobra.Command{
	Use:   "why [text]",
	Short: "Record a WHY: rationale/intent (short, atomic)",
	Long: `Record a WHY: a decision or its rationale.

Text is at most 100 characters on a single line. If omitted it is read
from stdin.

Text that looks like a credential is rejected by the secret guard, the
same as for cr what (see secrets.enabled and .gitleaks.toml).

Examples:
  cr why "csv keeps the journal diffable in review"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdd(cmd, journal.KindWhy, args)
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls [n]",
	Short: "List the last N memories (default: 20)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a memory by id or unique id prefix (e.g. cr-otht or otht)",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Find memories by substring (case-insensitive)",
	Args:  cobra.ExactArgs(1),
	RunE:  runFind,
}

// readText returns the argument, or stdin minus trailing line breaks.
func readText(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	buf, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	return strings.TrimRight(string(buf), "\r\n"), nil
}

func runAdd(cmd *cobra.Command, kind journal.Kind, args []string) error {
	a, ctx, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	text, err := readText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	j, err := a.newJournal(true)
	if err != nil {
		return err
	}

	entry, err := j.Add(ctx, kind, text, a.origin(ctx))
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), entry)
	}
	fmt.Fprintln(cmd.OutOrStdout(), entry.ID)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, ctx, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	n := a.cfg.List.Limit
	if len(args) == 1 {
		n, err = strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("n must be a non-negative integer, got %q: %w", args[0], journal.ErrValidation)
		}
	}

	j, err := a.newJournal(false)
	if err != nil {
		return err
	}
	memories, err := j.List(ctx, n)
	if err != nil {
		return err
	}
	return writeMemories(cmd.OutOrStdout(), memories)
}

func runShow(cmd *cobra.Command, args []string) error {
	a, ctx, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	j, err := a.newJournal(false)
	if err != nil {
		return err
	}
	m, err := j.Show(ctx, args[0])
	if err != nil {
		return err
	}
	return writeMemory(cmd.OutOrStdout(), m)
}

func runFind(cmd *cobra.Command, args []string) error {
	a, ctx, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	limit := a.cfg.Find.Limit
	if cmd.Flags().Changed("limit") {
		if err := journal.ValidateWindow("limit", findLimit); err != nil {
			return err
		}
		limit = findLimit
	}

	j, err := a.newJournal(false)
	if err != nil {
		return err
	}
	memories, err := j.Find(ctx, args[0], limit)
	if err != nil {
		return err
	}
	return writeMemories(cmd.OutOrStdout(), memories)
}
