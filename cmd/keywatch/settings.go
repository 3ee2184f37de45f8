package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aleister1102/keywatch/internal/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the monitor settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current monitor settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change monitor settings; unspecified values are kept",
	Args:  cobra.NoArgs,
	RunE:  runSettingsSet,
}

func init() {
	settingsSetCmd.Flags().StringSlice("url", nil, "Pages to monitor (replaces the list)")
	settingsSetCmd.Flags().StringSlice("keyword", nil, "Keywords to look for (replaces the list)")
	settingsSetCmd.Flags().Int("interval", 0, "Check interval in seconds")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	var mc config.MonitorConfig
	if err := client.get(cmd.Context(), "/api/settings", nil, &mc); err != nil {
		return err
	}
	if wantJSON() {
		return printJSON(mc)
	}
	printSettings(mc)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	var mc config.MonitorConfig
	if err := client.get(cmd.Context(), "/api/settings", nil, &mc); err != nil {
		return err
	}

	changed := false
	if cmd.Flags().Changed("url") {
		mc.URLs, _ = cmd.Flags().GetStringSlice("url")
		changed = true
	}
	if cmd.Flags().Changed("keyword") {
		mc.Keywords, _ = cmd.Flags().GetStringSlice("keyword")
		changed = true
	}
	if cmd.Flags().Changed("interval") {
		mc.CheckIntervalSeconds, _ = cmd.Flags().GetInt("interval")
		changed = true
	}
	if !changed {
		return fmt.Errorf("nothing to change: use --url, --keyword or --interval")
	}

	var saved config.MonitorConfig
	if err := client.call(cmd.Context(), http.MethodPut, "/api/settings", mc, &saved); err != nil {
		return err
	}
	pterm.Success.Println("Settings saved")
	if wantJSON() {
		return printJSON(saved)
	}
	printSettings(saved)
	return nil
}

func printSettings(mc config.MonitorConfig) {
	rows := pterm.TableData{
		{"URLs", strings.Join(mc.URLs, "\n")},
		{"Keywords", strings.Join(mc.Keywords, ", ")},
		{"Interval", strconv.Itoa(mc.CheckIntervalSeconds) + "s"},
		{"Timer", mc.Timer},
		{"History size", strconv.Itoa(mc.HistorySize)},
	}
	_ = pterm.DefaultTable.WithData(rows).Render()
}
