package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftplan/internal/anonymize"
	"github.com/Tiliavir/shiftplan/internal/extract"
	"github.com/Tiliavir/shiftplan/internal/timesheet"
)

var anonymizeCmd = &cobra.Command{
	Use:   "anonymize <file>",
	Short: "Print an anonymized structure report of a roster for the maintainers",
	Long: `Extracts the text of a roster, removes names, addresses and personnel
numbers and prints it together with the time ranges that have no mapping.
Check the output before sharing it.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnonymize,
}

func runAnonymize(cmd *cobra.Command, args []string) error {
	base := baseDir()
	text, err := extract.File(cmd.Context(), args[0], logger)
	if err != nil {
		fail(exitIO, err)
	}
	sel := mustSelect(base)

	res, err := timesheet.Parse(text, sel.inst.Classifier(), sel.table)
	if err != nil {
		fail(exitIO, err)
	}
	fmt.Print(structureFeedback(sel, res.Diagnostics.Unknown, anonymize.Text(text)))
	return nil
}

// structureFeedback renders the anonymized document with the selection and
// the unmapped ranges found in it.
func structureFeedback(sel selection, unknown []string, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Krankenhaus: %s\nBerufsgruppe: %s\nBereich: %s\n\n", sel.inst.Name, sel.profession, sel.area)
	if len(unknown) > 0 {
		b.WriteString("Fehlende Schichten:\n")
		for _, u := range unknown {
			fmt.Fprintf(&b, "- %s\n", u)
		}
		b.WriteString("\n")
	}
	b.WriteString("---\n")
	b.WriteString(strings.TrimRight(content, "\n"))
	b.WriteString("\n---\n")
	return b.String()
}
