package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aleister1102/keywatch/internal/models"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show monitoring state, badge and the latest scans",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	var status models.Status
	if err := client.get(cmd.Context(), "/api/status", nil, &status); err != nil {
		return err
	}
	if wantJSON() {
		return printJSON(status)
	}

	printStatus(status)
	return nil
}

func printStatus(s models.Status) {
	state := pterm.FgRed.Sprint("Disabled")
	if s.Monitoring.Enabled {
		state = pterm.FgGreen.Sprint("Enabled")
	}
	lastCheck := "-"
	if s.Monitoring.LastCheckTimeMillis != nil {
		lastCheck = formatMillis(*s.Monitoring.LastCheckTimeMillis)
	}
	badge := s.BadgeText
	if badge == "" {
		badge = "-"
	}
	if s.TickInFlight {
		state += " (checking)"
	}

	rows := pterm.TableData{
		{"Monitoring", state},
		{"Last check", lastCheck},
		{"Badge", badge},
		{"Notifications", strconv.FormatInt(s.NotificationCount, 10)},
		{"URLs", strconv.Itoa(s.URLCount)},
		{"Keywords", strconv.Itoa(s.KeywordCount)},
		{"Interval", fmt.Sprintf("%ds", s.IntervalSeconds)},
	}
	_ = pterm.DefaultTable.WithData(rows).Render()

	if len(s.LastScans) == 0 {
		return
	}
	pterm.Println()
	scans := pterm.TableData{{"Time", "Source", "URL", "Found", "Error"}}
	for _, r := range s.LastScans {
		found := fmt.Sprintf("%d/%d", len(r.FoundKeywords), r.TotalKeywords)
		if len(r.FoundKeywords) > 0 {
			found += " " + strings.Join(r.FoundKeywords, ", ")
		}
		scans = append(scans, []string{formatMillis(r.TimestampMillis), r.Source, r.URL, found, r.Error})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(scans).Render()
}
