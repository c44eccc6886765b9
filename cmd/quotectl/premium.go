package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	calculatepremium "quote-workflow/internal/workers/quote/calculate-premium"
)

func newPremiumCmd(root *rootOptions) *cobra.Command {
	var (
		input   string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "premium",
		Short: "Apply one premium edit to a coverage selection",
		Example: `  echo '{"action":"select_coverage","cell":"Table1-50000-1000-750.00-1000,50000","taxPercent":"5"}' | quotectl premium --offline`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, input)
			if err != nil {
				return err
			}
			var in calculatepremium.Input
			if err := json.Unmarshal(data, &in); err != nil {
				return fmt.Errorf("decode premium input: %w", err)
			}

			cfg := calculatepremium.LoadConfig(nil)
			if !offline {
				appCfg, err := root.load()
				if err != nil {
					return err
				}
				cfg = calculatepremium.LoadConfig(appCfg)
			}

			st, err := calculatepremium.Apply(in, cfg.DefaultConvenienceFee)
			if err != nil {
				return err
			}
			return printJSON(cmd, calculatepremium.Output{
				State:      st,
				PolicyData: calculatepremium.ApplyToPolicyData(st, in.PolicyData),
			})
		},
	}
	cmd.Flags().StringVarP(&input, "file", "f", "-", "premium input JSON (- for stdin)")
	cmd.Flags().BoolVar(&offline, "offline", false, "use built-in defaults instead of loading config")
	return cmd
}
