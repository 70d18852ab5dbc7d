package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write configuration values",
	Long: `Read and write raw configuration values.

Known keys:
  coding.edit_mode      keep an EMPTY placeholder when a span's last value is deleted
  coding.history_size   recent values remembered per variable
  coding.strict         check library invariants after every change
  storage.data_dir      directory holding the unit database
  codebook.path         TOML or JSON codebook file`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configuration values",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change coding settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsEditModeCmd = &cobra.Command{
	Use:       "edit-mode [on|off]",
	Short:     "Turn edit mode on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runSettingsEditMode,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)

	settingsCmd.AddCommand(settingsEditModeCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	value, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("key %q is not set", args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	key, raw := args[0], args[1]
	if err := configStore.Set(key, parseConfigValue(raw)); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, raw)
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s\n", configStore.Path())
	for _, key := range configStore.Keys() {
		value, _ := configStore.Get(key)
		fmt.Fprintf(out, "%s = %v\n", key, value)
	}
	return nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Edit mode:    %s\n", onOff(settings.Coding.EditMode))
	fmt.Fprintf(out, "History size: %d\n", settings.Coding.HistorySize)
	fmt.Fprintf(out, "Strict:       %s\n", onOff(settings.Coding.Strict))
	fmt.Fprintf(out, "Data dir:     %s\n", orDefault(settings.Storage.DataDir))
	fmt.Fprintf(out, "Codebook:     %s\n", orDefault(settings.Codebook.Path))
	return nil
}

func runSettingsEditMode(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	var enabled bool
	switch args[0] {
	case "on":
		enabled = true
	case "off":
	default:
		return fmt.Errorf("expected on or off, got %q", args[0])
	}
	if err := settingsService.SetEditMode(enabled); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Edit mode %s\n", onOff(enabled))
	return nil
}

// parseConfigValue keeps booleans and integers typed in the config file.
func parseConfigValue(raw string) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}
