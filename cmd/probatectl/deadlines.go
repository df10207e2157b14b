package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"probate-backend/internal/deadlines"
)

func deadlinesCmd() *cobra.Command {
	var (
		hearing      string
		publications []string
		letters      string
		today        string
	)
	cmd := &cobra.Command{
		Use:   "deadlines",
		Short: "Derive key dates and urgency from milestone dates",
		Long: `Derive the key dates a case dashboard shows from its milestone dates.

Inventory and the end of the creditor claims period both fall four months
after letters are issued.`,
		Example: `  probatectl deadlines --letters 2024-03-15
  probatectl deadlines --hearing 2024-02-01 --publication 2024-01-05 --publication 2024-01-12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			records := map[string]map[string]any{
				"hearing":     {deadlines.FieldHearingDate: hearing},
				"publication": {deadlines.FieldPublicationDates: publications},
				"letters":     {deadlines.FieldLettersIssuedDate: letters},
			}
			for _, raw := range append([]string{hearing, letters}, publications...) {
				if raw == "" {
					continue
				}
				if _, err := deadlines.ParseDate(raw); err != nil {
					return err
				}
			}

			now := deadlines.Day(time.Now())
			if today != "" {
				d, err := deadlines.ParseDate(today)
				if err != nil {
					return err
				}
				now = d
			}

			out := cmd.OutOrStdout()
			dates := deadlines.KeyDates(records)
			if len(dates) == 0 {
				fmt.Fprintln(out, "No milestone dates given.")
				return nil
			}
			for _, kd := range dates {
				u := deadlines.Classify(kd.Date, now)
				fmt.Fprintf(out, "%-22s %s  %s\n", kd.Label, kd.Date.Format("2006-01-02"), u.Label)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&hearing, "hearing", "", "First hearing date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&publications, "publication", nil, "Publication dates (repeatable)")
	cmd.Flags().StringVar(&letters, "letters", "", "Letters issued date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&today, "today", "", "Override today's date")
	return cmd
}
