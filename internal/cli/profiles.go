package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kasard/thermactl/internal/profile"
)

func init() {
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesShowCmd)
	profilesSetCmd.Flags().String("file", "", "Load the override profile from a JSON file")
	profilesCmd.AddCommand(profilesSetCmd)
	profilesCmd.AddCommand(profilesClearCmd)
	rootCmd.AddCommand(profilesCmd)
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Inspect and manage thermal profiles",
}

var profilesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List builtin profiles and the active selection",
	RunE:    runProfilesList,
}

var profilesShowCmd = &cobra.Command{
	Use:   "show [NAME]",
	Short: "Show a profile as JSON (the active one when no name is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfilesShow,
}

var profilesSetCmd = &cobra.Command{
	Use:   "set [NAME]",
	Short: "Persist a profile override by builtin name or from a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfilesSet,
}

var profilesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the persisted override and fall back to detection",
	RunE:  runProfilesClear,
}

func runProfilesList(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	manager := newManager(cfg)
	active := manager.Active()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDEVICE\tCPU WARN/CRIT/EMER\tBATTERY WARN/CRIT/EMER\tSUSTAINABLE")
	for _, p := range profile.Builtins() {
		marker := ""
		if p.Name == active.Name {
			marker = " *"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%.0f/%.0f/%.0f\t%.0f/%.0f/%.0f\t%dkbps %dx%d@%d\n",
			p.Name, marker,
			p.DeviceModel,
			p.CPU.WarnC, p.CPU.CriticalC, p.CPU.EmergencyC,
			p.Battery.WarnC, p.Battery.CriticalC, p.Battery.EmergencyC,
			p.Sustainable.BitrateKbps, p.Sustainable.Width, p.Sustainable.Height, p.Sustainable.Framerate,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if override, ok := manager.Override(); ok {
		fmt.Printf("\nOverride active: %s\n", override.Name)
	} else {
		fmt.Printf("\nDetected: %s\n", manager.Detected().Name)
	}

	return nil
}

func runProfilesShow(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	manager := newManager(cfg)

	p := manager.Active()
	if len(args) == 1 {
		var ok bool
		p, ok = builtinByName(args[0])
		if !ok {
			return fmt.Errorf("unknown profile %q", args[0])
		}
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))

	return nil
}

func runProfilesSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	manager := newManager(cfg)

	file, _ := cmd.Flags().GetString("file")

	var p profile.Profile
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("parse profile file: %w", err)
		}
	case len(args) == 1:
		var ok bool
		p, ok = builtinByName(args[0])
		if !ok {
			names := make([]string, 0)
			for _, b := range profile.Builtins() {
				names = append(names, b.Name)
			}
			return fmt.Errorf("unknown profile %q (builtins: %s)", args[0], strings.Join(names, ", "))
		}
	default:
		return fmt.Errorf("give a builtin profile name or --file")
	}

	if err := manager.SetOverride(p); err != nil {
		return err
	}

	fmt.Printf("Override set: %s\n", p.Name)

	return nil
}

func runProfilesClear(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	manager := newManager(cfg)

	if err := manager.ClearOverride(); err != nil {
		return err
	}

	fmt.Printf("Override cleared, detected profile: %s\n", manager.Detected().Name)

	return nil
}
