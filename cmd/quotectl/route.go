package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"quote-workflow/internal/models"
	resolvequalifier "quote-workflow/internal/workers/quote/resolve-qualifier"
)

type routeInput struct {
	Request  models.QuoteRequest `json:"request"`
	Response json.RawMessage     `json:"response"`
}

func newRouteCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Show where a qualifier response sends the applicant",
		Long: `route reads {"request": <qualifier form>, "response": <qualifier data>}
and prints the route the workflow would take, without calling the backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, input)
			if err != nil {
				return err
			}
			var in routeInput
			if err := json.Unmarshal(data, &in); err != nil {
				return fmt.Errorf("decode route input: %w", err)
			}
			resp, err := models.ParseQuoteResponse(in.Response)
			if err != nil {
				return err
			}
			decision, err := resolvequalifier.Decide(in.Request, resp)
			if err != nil {
				return err
			}
			return printJSON(cmd, decision)
		},
	}
	cmd.Flags().StringVarP(&input, "file", "f", "-", "route input JSON (- for stdin)")
	return cmd
}
