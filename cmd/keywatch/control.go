package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aleister1102/keywatch/internal/models"
	"github.com/aleister1102/keywatch/internal/monitor"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var toggleCmd = &cobra.Command{
	Use:       "toggle [on|off]",
	Short:     "Turn monitoring on or off; without an argument, flip the current state",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runToggle,
}

var clearBadgeCmd = &cobra.Command{
	Use:   "clear-badge",
	Short: "Clear the badge text; the notification counter is kept",
	Args:  cobra.NoArgs,
	RunE:  runClearBadge,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one poll cycle now",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func runToggle(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	var enabled bool
	if len(args) == 1 {
		switch strings.ToLower(args[0]) {
		case "on":
			enabled = true
		case "off":
			enabled = false
		default:
			return fmt.Errorf("unknown state %q, expected on or off", args[0])
		}
	} else {
		var status models.Status
		if err := client.get(cmd.Context(), "/api/status", nil, &status); err != nil {
			return err
		}
		enabled = !status.Monitoring.Enabled
	}

	if err := client.call(cmd.Context(), http.MethodPut, "/api/monitoring", map[string]bool{"enabled": enabled}, nil); err != nil {
		return err
	}
	if enabled {
		pterm.Success.Println("Monitoring enabled")
	} else {
		pterm.Warning.Println("Monitoring disabled")
	}
	return nil
}

func runClearBadge(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	if err := client.call(cmd.Context(), http.MethodDelete, "/api/badge", nil, nil); err != nil {
		return err
	}
	pterm.Success.Println("Badge cleared")
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	if wantJSON() {
		var stats monitor.CycleStats
		if err := client.call(cmd.Context(), http.MethodPost, "/api/check", nil, &stats); err != nil {
			return err
		}
		return printJSON(stats)
	}

	spinner, _ := pterm.DefaultSpinner.Start("Checking monitored pages...")
	var stats monitor.CycleStats
	if err := client.call(cmd.Context(), http.MethodPost, "/api/check", nil, &stats); err != nil {
		spinner.Fail("Check failed")
		return err
	}
	spinner.Success(fmt.Sprintf("Checked %d URL(s) in %s: %d new match(es), %d failure(s)",
		stats.URLsChecked, stats.Duration.Round(time.Millisecond), stats.NewMatches, stats.URLsFailed))
	return nil
}
