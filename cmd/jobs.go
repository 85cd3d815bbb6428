package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newMorningCmd sends the morning digest: pick an unread article from the
// reading list, summarize it and email it.
func newMorningCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "morning",
		Short: "Send the morning article digest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()
			return rt.pipe.Morning(cmd.Context())
		},
	}
}

// newNoonCmd sends the midday reminder asking for the reader's own notes.
func newNoonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "noon",
		Short: "Send the noon reminder for today's article",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()
			return rt.pipe.Noon(cmd.Context())
		},
	}
}

// newPollCmd scans the inbox for reply notes and archives them.
func newPollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Capture reply notes from the inbox into the archive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()
			return rt.pipe.PollReplies(cmd.Context())
		},
	}
}

// newUmbrellaCmd runs the weather check once.
func newUmbrellaCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "umbrella",
		Short: "Check the forecast and send an umbrella alert if needed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()
			if rt.checker == nil {
				return fmt.Errorf("umbrella check is not enabled in config")
			}
			return rt.checker.Run(cmd.Context(), force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "run even outside the scheduled hour")
	return cmd
}

// newValidateCmd probes every reading-list link and reports which ones
// would survive extraction.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every reading-list link for scrapeability",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			reports, err := rt.pipe.ValidateLinks(cmd.Context())
			if err != nil {
				return err
			}
			valid := 0
			for _, r := range reports {
				if r.OK {
					valid++
					fmt.Printf("ok    %s (%d chars) %s\n", r.URL, r.Chars, r.Title)
					continue
				}
				fmt.Printf("FAIL  %s: %s\n", r.URL, r.Reason)
			}
			fmt.Printf("%d/%d links valid\n", valid, len(reports))
			if valid < len(reports) {
				return fmt.Errorf("%d links failed validation", len(reports)-valid)
			}
			return nil
		},
	}
}

// newStatusCmd prints the tracker state as JSON for operator inspection.
func newStatusCmd() *cobra.Command {
	var historyLimit int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show delivery totals and recent history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			out := struct {
				TotalSent int `json:"total_sent"`
				History   any `json:"history"`
			}{
				TotalSent: rt.tracker.Stats().TotalSent,
				History:   rt.tracker.History(historyLimit),
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().IntVar(&historyLimit, "history", 10, "number of history entries to show")
	return cmd
}
