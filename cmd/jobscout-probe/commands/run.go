package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/scraper"
)

// minSuccessRate is the share of runs that must succeed for the command to pass.
const minSuccessRate = 2.0 / 3.0

var (
	runURL      *string
	runCount    *int
	runHeadful  *bool
	runMinDelay *time.Duration
)

func init() {
	runURL = runCmd.Flags().String("url", "", "Job posting to scrape. Defaults to JOBSCOUT_DIAGNOSTIC_URL.")
	runCount = runCmd.Flags().IntP("runs", "n", 3, "Number of consecutive scrapes.")
	runHeadful = runCmd.Flags().Bool("headful", false, "Show the browser window.")
	runMinDelay = runCmd.Flags().Duration("min-delay", 0, "Override the minimum spacing between navigations.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--url <job url>] [-n <runs>]",
	Short: "Scrapes one job posting several times in a row with a real browser.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if *runHeadful {
			cfg.Browser.Headless = false
		}
		if *runMinDelay > 0 {
			cfg.Scraper.MinDelay = *runMinDelay
		}

		url := *runURL
		if url == "" {
			url = cfg.Diagnostics.DefaultURL
		}
		url, _, err := models.ParseLinkedInJobURL(url)
		if err != nil {
			return err
		}
		if *runCount < 1 {
			return errors.New("--runs must be at least 1")
		}

		manager := scraper.NewManager(cfg.Scraper, scraper.NewRodLauncher(cfg.Browser, cfg.Scraper))
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Scraper.CloseTimeout)
			defer cancel()
			if err := manager.Cleanup(ctx); err != nil {
				slog.Warn("browser cleanup failed", "error", err)
			}
		}()

		results := scrapeRuns(cmd.Context(), manager, url, *runCount)
		return report(cmd.OutOrStdout(), results)
	},
}

type jobScraper interface {
	ScrapeJob(ctx context.Context, url string) (*models.ScrapeResult, error)
}

type runResult struct {
	run     int
	elapsed time.Duration
	result  *models.ScrapeResult
	err     error
}

// scrapeRuns scrapes url runs times in a row, stopping early if ctx is done.
func scrapeRuns(ctx context.Context, sc jobScraper, url string, runs int) []runResult {
	results := make([]runResult, 0, runs)
	for i := 1; i <= runs; i++ {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		res, err := sc.ScrapeJob(ctx, url)
		results = append(results, runResult{run: i, elapsed: time.Since(start), result: res, err: err})

		if err != nil {
			slog.Warn("run failed", "run", i, "error", err)
		} else {
			slog.Info("run succeeded", "run", i, "attempts", res.Attempts, "title", res.Title)
		}
	}
	return results
}

// report writes one row per run and fails when too few runs succeeded.
func report(w io.Writer, results []runResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tRESULT\tATTEMPTS\tELAPSED\tDETAIL")

	var ok int
	for _, r := range results {
		if r.err != nil {
			code := models.ErrCodeInternal
			var se *models.ScrapeError
			if errors.As(r.err, &se) {
				code = se.Code
			}
			fmt.Fprintf(tw, "%d\tFAIL\t-\t%s\t%s\n", r.run, r.elapsed.Round(time.Millisecond), code)
			continue
		}
		ok++
		fmt.Fprintf(tw, "%d\tOK\t%d\t%s\t%s (%s, %d chars)\n",
			r.run, r.result.Attempts, r.elapsed.Round(time.Millisecond),
			r.result.Title, r.result.Company, len([]rune(r.result.Description)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(results) == 0 {
		return errors.New("no runs completed")
	}
	rate := float64(ok) / float64(len(results))
	fmt.Fprintf(w, "\n%d/%d runs succeeded (%.0f%%)\n", ok, len(results), rate*100)
	if rate < minSuccessRate {
		return fmt.Errorf("success rate %.0f%% is below %.0f%%", rate*100, minSuccessRate*100)
	}
	return nil
}
