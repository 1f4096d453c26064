package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mediguide-lk/mediguide/internal/batch"
	"github.com/mediguide-lk/mediguide/internal/progress"
)

var (
	batchConcurrency int
	batchOut         string
)

var batchCmd = &cobra.Command{
	Use:   "batch <file.yml>",
	Short: "Run many advisory requests from a YAML file",
	Long: `Reads a list of requests from a YAML file and submits them concurrently.

Each entry names a kind and its input, for example:

  - kind: medicine
    text: Panadol
  - kind: interactions
    medicines: [Warfarin, Aspirin]
  - kind: identify
    image: photos/**/*.jpg

Image entries accept doublestar globs relative to the file. Answers are
printed in input order; failures are reported at the end.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(); err != nil {
			return err
		}
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		lang, err := language(a)
		if err != nil {
			return err
		}
		reqs, err := batch.Load(args[0], lang)
		if err != nil {
			return err
		}

		reporter := progress.NewReporter(os.Stderr, "Batch")
		reporter.Start(len(reqs))
		b := batch.NewBatcher(batchConcurrency, a.Orchestrator, func(done, total int, label string) {
			reporter.Update(done, label)
		})
		result := b.Run(ctx, reqs)
		reporter.Finish()

		out := os.Stdout
		if batchOut != "" {
			f, err := os.Create(batchOut)
			if err != nil {
				return fmt.Errorf("creating %s: %w", batchOut, err)
			}
			defer f.Close()
			out = f
		}
		if answers := result.Results(); len(answers) > 0 {
			if err := printResults(out, outputFormat, answers...); err != nil {
				return err
			}
		}

		for _, o := range result.Outcomes {
			if o.Err != nil {
				fmt.Fprintf(os.Stderr, "  %s %q: %v\n", o.Request.Kind, o.Request.Describe(), advisoryError(o.Err))
			}
		}
		fmt.Fprintf(os.Stderr, "Provider usage: %s\n", a.Usage.Total())
		if result.Failed > 0 {
			return fmt.Errorf("%d of %d requests failed", result.Failed, len(reqs))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 4, "requests in flight at once")
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "write answers to this file instead of stdout")
	rootCmd.AddCommand(batchCmd)
}
