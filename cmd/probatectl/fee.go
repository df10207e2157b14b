package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"probate-backend/internal/fees"
)

func feeCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "fee [estate-value]",
		Short: "Estimate the statutory attorney fee for an estate value",
		Example: `  probatectl fee 1250000
  probatectl fee '$450,000' --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.NewReplacer(",", "", "$", "").Replace(strings.TrimSpace(args[0]))
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil || value < 0 {
				return fmt.Errorf("estate value must be a non-negative number, got %q", args[0])
			}

			out := cmd.OutOrStdout()
			portions := fees.Breakdown(value)
			fee := fees.StatutoryFee(value)
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"estateValue": value,
					"fee":         fee,
					"brackets":    portions,
				})
			}

			for _, p := range portions {
				fmt.Fprintf(out, "%12.0f - %12.0f  @ %5.2f%%  %10.2f\n", p.From, p.To, p.Rate*100, p.Amount)
			}
			fmt.Fprintf(out, "Statutory fee: $%d\n", fee)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}
