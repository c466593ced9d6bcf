package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change engine, timeline and watch settings.

Settings are stored in config.toml under the configuration directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting. Keys:

  engine.workers       int    goroutines used to fan out property rows
  engine.cache         bool   memoise resolutions and samples
  timeline.step        float  time codes per scrub key press
  timeline.scrub_rate  float  re-samples per second while scrubbing
  watch.enabled        bool   reload the TUI when layer files change
  log.verbose          bool   debug diagnostics on stderr`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if jsonFlag {
		values := make(map[string]string)
		for _, key := range settingsService.Keys() {
			values[key], _ = settingValue(settings, key)
		}
		return printJSON(cmd, values)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	for _, key := range settingsService.Keys() {
		value, _ := settingValue(settings, key)
		cmd.Printf("  %-20s %s\n", key, value)
	}
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	value, ok := settingValue(settings, args[0])
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, args[0])
	}
	cmd.Println(value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("%s set to %s\n", args[0], args[1])
	return nil
}

func settingValue(s *domain.AppSettings, key string) (string, bool) {
	switch key {
	case "engine.workers":
		return strconv.Itoa(s.Engine.Workers), true
	case "engine.cache":
		return strconv.FormatBool(s.Engine.Cache), true
	case "timeline.step":
		return strconv.FormatFloat(s.Timeline.Step, 'g', -1, 64), true
	case "timeline.scrub_rate":
		return strconv.FormatFloat(s.Timeline.ScrubRate, 'g', -1, 64), true
	case "watch.enabled":
		return strconv.FormatBool(s.Watch.Enabled), true
	case "log.verbose":
		return strconv.FormatBool(s.Log.Verbose), true
	default:
		return "", false
	}
}
