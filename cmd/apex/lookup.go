package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apex-run/apex-core/internal/config"
	"github.com/apex-run/apex-core/internal/ingest"
	"github.com/apex-run/apex-core/internal/lookup"
	"github.com/apex-run/apex-core/internal/metrics"
	"github.com/apex-run/apex-core/internal/store"
)

var (
	patternsDir string
	task        string
	candPaths   []string
	topK        int
	configPath  string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Load a pattern directory and run one ranked lookup",
	Long: `lookup loads every *.yaml/*.yml/*.json pattern document under
--patterns into an in-memory store (reporting any other file as
skipped), builds the retrieval index, and runs one
lookup for --task over --paths, printing the ranked result and the
resulting metrics snapshot.`,
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().StringVar(&patternsDir, "patterns", "", "directory of pattern YAML documents (required)")
	lookupCmd.Flags().StringVar(&task, "task", "", "free-text description of the task at hand")
	lookupCmd.Flags().StringSliceVar(&candPaths, "paths", nil, "candidate file paths, comma-separated")
	lookupCmd.Flags().IntVar(&topK, "k", 10, "number of ranked patterns to return")
	lookupCmd.Flags().StringVar(&configPath, "config", "", "optional YAML config file overlay")
	_ = lookupCmd.MarkFlagRequired("patterns")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	s := store.NewMemoryStore()
	report, err := ingest.Directory(ctx, s, patternsDir)
	if err != nil {
		return fmt.Errorf("load patterns: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d patterns from %s", report.Loaded, patternsDir)
	if len(report.Skipped) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (%d skipped)", len(report.Skipped))
	}
	fmt.Fprintln(cmd.OutOrStdout())
	for _, skip := range report.Skipped {
		fmt.Fprintf(cmd.OutOrStdout(), "  skipped %s: %s\n", skip.File, skip.Message)
	}

	rec := metrics.New()
	orch, err := lookup.New(ctx, s, lookup.WithWeights(cfg.Weights), lookup.WithMetrics(rec))
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	k := topK
	if k <= 0 {
		k = cfg.DefaultK
	}
	resp, err := orch.Lookup(ctx, lookup.Request{
		Task:  task,
		Paths: candPaths,
		K:     k,
	})
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}

	printRanked(cmd, resp)
	printMetrics(cmd, rec)
	return nil
}

func printRanked(cmd *cobra.Command, resp lookup.Response) {
	out := cmd.OutOrStdout()
	if len(resp.Patterns) == 0 {
		fmt.Fprintln(out, "no matching patterns")
		return
	}
	fmt.Fprintln(out, strings.Repeat("-", 60))
	for i, r := range resp.Patterns {
		fmt.Fprintf(out, "%2d. %-28s score=%.4f trust=%.4f\n", i+1, r.Pattern.ID, r.Score, r.Pattern.TrustScore)
		if r.Pattern.Summary != "" {
			fmt.Fprintf(out, "    %s\n", r.Pattern.Summary)
		}
	}
}

func printMetrics(cmd *cobra.Command, rec *metrics.Recorder) {
	snap := rec.Snapshot()
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal metrics snapshot: %v\n", err)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Repeat("-", 60))
	fmt.Fprintln(cmd.OutOrStdout(), string(body))
}
