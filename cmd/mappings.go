package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftplan/internal/mapping"
	"github.com/Tiliavir/shiftplan/internal/storage"
)

var mappingsValidated bool

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Show and edit the shift code mapping of the selected preset",
	Long: `Mappings translate time ranges ("07:35-15:50") and all-day categories
("SPECIAL:URLAUB") to shift codes. Edits are stored as user overrides in
~/.shiftplan/mappings/ and replace the built-in preset.`,
}

var mappingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the effective mapping",
	Args:  cobra.NoArgs,
	RunE:  runMappingsList,
}

var mappingsSetCmd = &cobra.Command{
	Use:   "set <range> <code>",
	Short: "Add or change a mapping, e.g. set 07:35-15:50 F",
	Args:  cobra.ExactArgs(2),
	RunE:  runMappingsSet,
}

var mappingsDeleteCmd = &cobra.Command{
	Use:   "delete <range>",
	Short: "Remove a mapping",
	Args:  cobra.ExactArgs(1),
	RunE:  runMappingsDelete,
}

var mappingsRenameCmd = &cobra.Command{
	Use:   "rename <old-range> <new-range> <code>",
	Short: "Move a mapping to a corrected range, e.g. rename 07:35-15:50 07:30-15:50 F",
	Args:  cobra.ExactArgs(3),
	RunE:  runMappingsRename,
}

var mappingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop user overrides and return to the built-in preset",
	Args:  cobra.NoArgs,
	RunE:  runMappingsReset,
}

var mappingsProposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Print the effective mapping as a proposal for the maintainers",
	Args:  cobra.NoArgs,
	RunE:  runMappingsPropose,
}

func init() {
	mappingsSetCmd.Flags().BoolVar(&mappingsValidated, "validated", false, "Mark the mapping as confirmed")
	mappingsCmd.AddCommand(mappingsListCmd, mappingsSetCmd, mappingsDeleteCmd, mappingsRenameCmd, mappingsResetCmd, mappingsProposeCmd)
}

func runMappingsList(cmd *cobra.Command, args []string) error {
	sel := mustSelect(baseDir())
	source := "built-in"
	if sel.overridden {
		source = "user overrides"
	}
	fmt.Printf("%s/%s/%s/%s (%s)\n", sel.inst.ID, sel.profession, sel.area, sel.preset, source)
	printTable(sel.table)

	if conflicts := sel.table.Conflicts(); len(conflicts) > 0 {
		fmt.Println()
		fmt.Println("Codes with mixed verification:")
		for _, c := range conflicts {
			fmt.Printf("  %s: verified %s, unverified %s\n",
				c.Code, strings.Join(c.Validated, ", "), strings.Join(c.Unvalidated, ", "))
		}
	}
	return nil
}

func printTable(t *mapping.Table) {
	if t.Len() == 0 {
		fmt.Println("No mappings.")
		return
	}
	for _, key := range t.Keys() {
		v, _ := t.Lookup(key)
		mark := " "
		if v.Validated {
			mark = "✓"
		}
		fmt.Printf("  %s %-22s %s\n", mark, key, v.Code)
	}
}

func runMappingsSet(cmd *cobra.Command, args []string) error {
	key, code := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
	return editOverrides(func(t *mapping.Table) error {
		if err := t.Set(key, mapping.Value{Code: code, Validated: mappingsValidated}); err != nil {
			fail(exitUsage, err)
		}
		fmt.Printf("%s → %s\n", key, code)
		return nil
	})
}

func runMappingsDelete(cmd *cobra.Command, args []string) error {
	key := strings.TrimSpace(args[0])
	return editOverrides(func(t *mapping.Table) error {
		if !t.Delete(key) {
			fail(exitUsage, fmt.Errorf("mapping %q not found", key))
		}
		fmt.Printf("Removed %s\n", key)
		return nil
	})
}

func runMappingsRename(cmd *cobra.Command, args []string) error {
	return editOverrides(renameMapping(args[0], args[1], args[2]))
}

func renameMapping(oldKey, newKey, code string) func(t *mapping.Table) error {
	oldKey, newKey, code = strings.TrimSpace(oldKey), strings.TrimSpace(newKey), strings.TrimSpace(code)
	return func(t *mapping.Table) error {
		if err := t.Rename(oldKey, newKey, code); err != nil {
			return err
		}
		fmt.Printf("%s → %s %s\n", oldKey, newKey, code)
		return nil
	}
}

func runMappingsReset(cmd *cobra.Command, args []string) error {
	base := baseDir()
	sel := mustSelect(base)
	overrides, err := storage.LoadOverrides(base, sel.inst.ID, sel.profession, sel.area)
	if err != nil {
		fail(exitIO, err)
	}
	if _, ok := overrides[sel.preset]; !ok {
		fmt.Println("No user overrides.")
		return nil
	}
	delete(overrides, sel.preset)
	if err := storage.SaveOverrides(base, sel.inst.ID, sel.profession, sel.area, overrides); err != nil {
		fail(exitIO, err)
	}
	fmt.Println("Returned to the built-in preset.")
	return nil
}

func runMappingsPropose(cmd *cobra.Command, args []string) error {
	sel := mustSelect(baseDir())
	fmt.Print(mappingProposal(sel.inst.Name, sel.profession, sel.area, sel.table))
	return nil
}

// editOverrides applies edit to the effective table of the selection and
// stores the result as user overrides.
func editOverrides(edit func(t *mapping.Table) error) error {
	base := baseDir()
	sel := mustSelect(base)

	err := saveEdit(base, sel, edit)
	var se *storageError
	switch {
	case errors.As(err, &se):
		fail(exitIO, se.err)
	case err != nil:
		fail(exitUsage, err)
	}
	return nil
}

// storageError marks failures reading or writing the overrides file.
type storageError struct{ err error }

func (e *storageError) Error() string { return e.err.Error() }
func (e *storageError) Unwrap() error { return e.err }

// saveEdit applies edit to a copy of the selection's table and stores the
// result as the user overrides of the selected preset.
func saveEdit(base string, sel selection, edit func(t *mapping.Table) error) error {
	t := sel.table.Clone()
	if err := edit(t); err != nil {
		return err
	}

	overrides, err := storage.LoadOverrides(base, sel.inst.ID, sel.profession, sel.area)
	if err != nil {
		return &storageError{err}
	}
	if overrides == nil {
		overrides = storage.Overrides{}
	}
	overrides[sel.preset] = t.Map()
	if err := storage.SaveOverrides(base, sel.inst.ID, sel.profession, sel.area, overrides); err != nil {
		return &storageError{err}
	}
	return nil
}

// mustSelect resolves the configured selection or exits.
func mustSelect(base string) selection {
	sel, err := configured(base, registry())
	if err != nil {
		fail(exitCodeFor(err), err)
	}
	return sel
}

// mappingProposal renders a mapping as a plain-text proposal that can be
// mailed to the maintainers.
func mappingProposal(hospital, profession, area string, t *mapping.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Krankenhaus: %s\nBerufsgruppe: %s\nBereich: %s\n\n", hospital, profession, area)
	b.WriteString("VORGESCHLAGENE SCHICHTEN:\n")
	for _, key := range t.Keys() {
		v, _ := t.Lookup(key)
		fmt.Fprintf(&b, "- %s: %s\n", v.Code, key)
	}
	return b.String()
}
