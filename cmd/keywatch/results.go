package main

import (
	"net/url"
	"strconv"

	"github.com/aleister1102/keywatch/internal/models"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List keyword matches, newest first",
	RunE:  runResults,
}

func init() {
	resultsCmd.Flags().IntP("limit", "n", 0, "Maximum number of matches to show (0 for all)")
}

func runResults(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var records []models.MatchRecord
	if err := client.get(cmd.Context(), "/api/results", query, &records); err != nil {
		return err
	}
	if wantJSON() {
		return printJSON(records)
	}

	if len(records) == 0 {
		pterm.Info.Println("No matches yet.")
		return nil
	}
	rows := pterm.TableData{{"Time", "Keyword", "URL", "Context"}}
	for _, r := range records {
		rows = append(rows, []string{formatMillis(r.TimestampMillis), r.Keyword, r.URL, r.Context})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
