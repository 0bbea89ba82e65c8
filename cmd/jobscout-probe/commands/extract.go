package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/jobscout/cleaner"
)

var extractSourceURL *string

func init() {
	extractSourceURL = extractCmd.Flags().String("source-url", "https://www.linkedin.com/jobs/view/", "URL the page was saved from, used to resolve relative links.")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <page.html>",
	Short: "Runs job extraction on a saved page and prints the fields as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		fields, err := cleaner.NewCleaner().ExtractJob(string(raw), *extractSourceURL)
		if err != nil {
			return fmt.Errorf("extract %s: %w", args[0], err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(fields)
	},
}
