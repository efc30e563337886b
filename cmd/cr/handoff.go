package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/crumbs/internal/handoff"
	"github.com/fyrsmithlabs/crumbs/internal/journal"
)

var (
	// handoff command flags
	markWindow int
	openLimit  int
)

func init() {
	rootCmd.AddCommand(handoffCmd)
	handoffCmd.AddCommand(handoffMarkCmd)
	handoffCmd.AddCommand(handoffOpenCmd)

	handoffMarkCmd.Flags().IntVar(&markWindow, "window", handoff.DefaultWindow, "Suggested memory window for the next session (default from handoff.window)")
	handoffOpenCmd.Flags().IntVar(&openLimit, "limit", 0, "Max memories to show (defaults to the checkpoint window)")
}

var handoffCmd = &cobra.Command{
	Use:   "handoff",
	Short: "Create/open handoff checkpoints over memory history",
	Long: `Create and open handoff checkpoints over memory history.

A checkpoint bookmarks every memory up to the newest one. Each new
checkpoint starts where the previous one ended. Without a subcommand the
newest checkpoint is opened.

Examples:
  # Bookmark the journal for the next session
  cr handoff mark --window 10

  # Resume from the newest checkpoint
  cr handoff

  # Open a specific checkpoint and show its whole slice
  cr handoff open hf-ab12 --limit 50`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return openHandoff(cmd, handoff.OpenRequest{})
	},
}

var handoffMarkCmd = &cobra.Command{
	Use:   "mark",
	Short: "Create a new checkpoint at the latest memory",
	Args:  cobra.NoArgs,
	RunE:  runHandoffMark,
}

var handoffOpenCmd = &cobra.Command{
	Use:   "open [id]",
	Short: "Open a checkpoint and print the memory slice to review",
	Long: `Open a checkpoint and print the memory slice to review.

The id may be a full id or a unique prefix (hf-ab12 or ab12). Without an
id the newest checkpoint is opened.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHandoffOpen,
}

func runHandoffMark(cmd *cobra.Command, args []string) error {
	a, ctx, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	window := a.cfg.Handoff.Window
	if cmd.Flags().Changed("window") {
		window = markWindow
	}

	h, err := a.handoffs.Mark(ctx, window, a.origin(ctx))
	if err != nil {
		return err
	}
	a.logger.Info(ctx, "handoff created", zap.String("id", h.ID), zap.String("to", h.ToMemoryID))

	out := cmd.OutOrStdout()
	if outputJSON {
		return writeJSON(out, h)
	}
	writeHandoffHeader(out, h)
	fmt.Fprintf(out, "open:    cr handoff open %s\n", h.ID)
	return nil
}

func runHandoffOpen(cmd *cobra.Command, args []string) error {
	req := handoff.OpenRequest{}
	if len(args) == 1 {
		req.ID = args[0]
	}
	if cmd.Flags().Changed("limit") {
		if err := journal.ValidateWindow("limit", openLimit); err != nil {
			return err
		}
		req.Limit = openLimit
	}
	return openHandoff(cmd, req)
}

// openResult is the JSON form of an opened checkpoint.
type openResult struct {
	Handoff  journal.Handoff       `json:"handoff"`
	Shown    int                   `json:"shown"`
	Total    int                   `json:"total"`
	Memories []journal.MemoryEntry `json:"memories"`
}

func openHandoff(cmd *cobra.Command, req handoff.OpenRequest) error {
	a, ctx, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	res, err := a.handoffs.Open(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		visible := res.Visible()
		if visible == nil {
			visible = []journal.MemoryEntry{}
		}
		return writeJSON(out, openResult{
			Handoff:  res.Handoff,
			Shown:    res.Shown,
			Total:    res.Total(),
			Memories: visible,
		})
	}

	h := res.Handoff
	writeHandoffHeader(out, &h)
	fmt.Fprintf(out, "slice:   %d/%d memories (newest first)\n", res.Shown, res.Total())
	fmt.Fprintln(out, "instructions:")
	fmt.Fprintln(out, "1. Read the memory rows below from newest to oldest.")
	fmt.Fprintln(out, "2. Continue work and record new context with `cr what` / `cr why`.")
	fmt.Fprintf(out, "3. When handing off again, run `cr handoff mark --window %d`.\n", h.SuggestedWindow)
	if res.Truncated() {
		fmt.Fprintf(out, "more:    cr handoff open %s --limit %d\n", h.ID, res.Total())
	}
	writeRows(out, res.Visible())
	return nil
}
