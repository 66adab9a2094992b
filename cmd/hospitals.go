package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var hospitalsQuery string

var hospitalsCmd = &cobra.Command{
	Use:   "hospitals",
	Short: "List supported hospitals with their professions, areas and presets",
	Args:  cobra.NoArgs,
	RunE:  runHospitals,
}

func init() {
	hospitalsCmd.Flags().StringVarP(&hospitalsQuery, "query", "q", "", "Only show hospitals matching this name")
}

func runHospitals(cmd *cobra.Command, args []string) error {
	found := registry().Find(hospitalsQuery)
	if len(found) == 0 {
		fmt.Printf("No hospital matches %q.\n", hospitalsQuery)
		return nil
	}
	for _, inst := range found {
		active := ""
		if inst.ID == cfg.Hospital {
			active = "  (active)"
		}
		fmt.Printf("%s – %s%s\n", inst.ID, inst.Name, active)
		for _, prof := range inst.Professions() {
			for _, area := range inst.Areas(prof) {
				fmt.Printf("  %s/%s: %v\n", prof, area, inst.Presets(prof, area))
			}
		}
	}
	return nil
}
