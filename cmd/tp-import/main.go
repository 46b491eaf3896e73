// CLI tool to import a TrainingPeaks workouts CSV for one user.
// Rows are upserted on (user_id, workout_day, title, workout_type) in one
// transaction, so re-running the same export updates rows instead of
// duplicating them.
// Usage: go run ./cmd/tp-import --input workouts.csv --user-id 1 [--batch 500] [--dry-run]
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Josep-Roura/Cooked-sub004/internal/tpimport"
)

type options struct {
	input     string
	userID    int
	batchSize int
	dryRun    bool
}

func (o options) validate() error {
	if o.input == "" {
		return fmt.Errorf("--input is required")
	}
	if o.userID <= 0 {
		return fmt.Errorf("--user-id must be a positive integer")
	}
	if o.batchSize <= 0 {
		return fmt.Errorf("--batch must be positive")
	}
	return nil
}

func main() {
	var opts options

	cmd := &cobra.Command{
		Use:          "tp-import",
		Short:        "Import a TrainingPeaks workouts CSV",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			if err := godotenv.Load(); err != nil {
				return fmt.Errorf("load .env: %w", err)
			}
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.input, "input", "", "path to the workouts CSV (raw export or normalized)")
	cmd.Flags().IntVar(&opts.userID, "user-id", 0, "owner of the imported workouts")
	cmd.Flags().IntVar(&opts.batchSize, "batch", tpimport.DefaultBatchSize, "upserts per round trip")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the summary without writing")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	f, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	parsed, err := tpimport.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", opts.input, err)
	}

	conn, err := pgx.Connect(ctx, os.Getenv("DB_URL"))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	existing := map[tpimport.Key]bool{}
	if start, end, ok := tpimport.DateRange(parsed.Rows); ok {
		if existing, err = tpimport.ExistingKeys(ctx, tx, opts.userID, start, end); err != nil {
			return err
		}
	}
	summary := tpimport.Classify(parsed, existing)
	printSummary(out, summary)

	if opts.dryRun || len(summary.Rows) == 0 {
		fmt.Fprintln(out, "Nothing written.")
		return nil
	}

	err = tpimport.Upsert(ctx, tx, opts.userID, summary.Rows, opts.batchSize, func(done int) {
		fmt.Fprintf(out, "  upserted %d/%d\n", done, len(summary.Rows))
	})
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	fmt.Fprintln(out, "Import committed.")
	return nil
}

// printSummary writes the per-line errors followed by the totals.
func printSummary(w io.Writer, s tpimport.Summary) {
	for _, e := range s.Errors {
		fmt.Fprintf(w, "  skip %s\n", e.Error())
	}
	for _, p := range s.Preview {
		if p.Duplicate {
			fmt.Fprintf(w, "  duplicate line %d (same as line %d): %s %q %s\n",
				p.Line, p.DuplicateOf, p.WorkoutDay, p.Title, p.WorkoutType)
		}
	}
	fmt.Fprintf(w, "created: %d  updated: %d  skipped: %d  duplicates: %d\n",
		s.Created, s.Updated, s.Skipped, s.Duplicates)
}
