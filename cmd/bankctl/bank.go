package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gokatarajesh/skill-assessment/internal/question"
)

var validateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Parse and validate question files without touching the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qs, err := question.LoadDir(args[0], newLogger(cmd))
		if err != nil {
			return err
		}
		if len(qs) == 0 {
			return fmt.Errorf("no valid questions found in %s", args[0])
		}
		stats := question.NewStats()
		for _, q := range qs {
			stats.Add(q)
		}
		printStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Load question files into the SQL item bank",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		qs, err := question.LoadDir(args[0], logger)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		st, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.UpsertQuestions(ctx, qs)
		if err != nil {
			return fmt.Errorf("import questions: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d questions from %s\n", n, args[0])

		if skip, _ := cmd.Flags().GetBool("keep-cache"); skip {
			return nil
		}
		pools, err := flushPoolCache(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("flush pool cache: %w", err)
		}
		if cfg.Redis.Enabled() {
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d cached pools\n", pools)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().Bool("keep-cache", false, "Leave cached question pools in Redis untouched")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show item bank counts by track and difficulty",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		st, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.BankStats(ctx)
		if err != nil {
			return err
		}
		printStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

func printStats(w io.Writer, s question.Stats) {
	fmt.Fprintf(w, "%-24s  %5s\n", "Track", "Count")
	fmt.Fprintln(w, strings.Repeat("─", 31))
	for _, t := range question.KnownTracks {
		fmt.Fprintf(w, "%-24s  %5d\n", t, s.ByTrack[t])
	}

	fmt.Fprintf(w, "\n%-24s  %5s\n", "Difficulty", "Count")
	fmt.Fprintln(w, strings.Repeat("─", 31))
	bands := make([]string, 0, len(s.ByDifficulty))
	for b := range s.ByDifficulty {
		bands = append(bands, string(b))
	}
	sort.Strings(bands)
	for _, b := range bands {
		fmt.Fprintf(w, "%-24s  %5d\n", b, s.ByDifficulty[question.Band(b)])
	}

	fmt.Fprintf(w, "\n%d questions\n", s.Total)
}
