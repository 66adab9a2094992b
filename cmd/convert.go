package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Tiliavir/shiftplan/internal/extract"
	"github.com/Tiliavir/shiftplan/internal/institution"
	"github.com/Tiliavir/shiftplan/internal/model"
	"github.com/Tiliavir/shiftplan/internal/storage"
	"github.com/Tiliavir/shiftplan/internal/timecalc"
	"github.com/Tiliavir/shiftplan/internal/timesheet"
)

var (
	convertDetect bool
	convertDryRun bool
	convertJobs   int
)

// errNoHeader is returned for documents without a month/year header.
var errNoHeader = errors.New("no month header found; is this a duty roster of the selected hospital?")

var convertCmd = &cobra.Command{
	Use:   "convert <file>...",
	Short: "Convert roster files (PDF or text) and store the months",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().BoolVar(&convertDetect, "detect", false, "Detect the hospital from the document instead of using the configured one")
	convertCmd.Flags().BoolVar(&convertDryRun, "dry-run", false, "Print the entries without storing them")
	convertCmd.Flags().IntVar(&convertJobs, "jobs", 4, "Number of files converted in parallel")
}

// converted is the outcome for one input file.
type converted struct {
	path  string
	month model.Month
	diag  timesheet.Diagnostics
	err   error
}

func runConvert(cmd *cobra.Command, args []string) error {
	base := baseDir()
	reg := registry()

	results := make([]converted, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	if convertJobs > 0 {
		g.SetLimit(convertJobs)
	}
	for i, path := range args {
		g.Go(func() error {
			m, diag, err := convertFile(ctx, base, reg, path, convertDetect)
			if err == nil && !convertDryRun {
				err = storage.SaveMonth(base, m)
			}
			results[i] = converted{path: path, month: m, diag: diag, err: err}
			// Per-file failures are reported below and do not stop the batch.
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.path, r.err)
			failed++
			continue
		}
		printConverted(r)
	}
	if failed > 0 {
		os.Exit(exitIO)
	}
	return nil
}

// convertFile extracts, parses and resolves one roster file.
func convertFile(ctx context.Context, base string, reg *institution.Registry, path string, detect bool) (model.Month, timesheet.Diagnostics, error) {
	text, err := extract.File(ctx, path, logger)
	if err != nil {
		return model.Month{}, timesheet.Diagnostics{}, err
	}

	inst, err := pickInstitution(reg, text, detect)
	if err != nil {
		return model.Month{}, timesheet.Diagnostics{}, err
	}
	sel, err := selectFor(base, inst)
	if err != nil {
		return model.Month{}, timesheet.Diagnostics{}, err
	}

	res, err := timesheet.Parse(text, inst.Classifier(), sel.table)
	if err != nil {
		return model.Month{}, timesheet.Diagnostics{}, err
	}
	logDiagnostics(path, res.Diagnostics)
	if !res.HasHeader() {
		return model.Month{}, res.Diagnostics, errNoHeader
	}
	year, month, err := timecalc.ParseMonthKey(timecalc.MonthKey(res.Year, res.Month))
	if err != nil {
		return model.Month{}, res.Diagnostics, err
	}

	return model.Month{
		Year:        year,
		Month:       month,
		Hospital:    inst.ID,
		Profession:  sel.profession,
		Area:        sel.area,
		Preset:      sel.preset,
		Source:      filepath.Base(path),
		ConvertedAt: time.Now().UTC(),
		Entries:     res.Entries,
	}, res.Diagnostics, nil
}

// pickInstitution returns the configured institution, or the best match
// for text when detect is set.
func pickInstitution(reg *institution.Registry, text string, detect bool) (*institution.Institution, error) {
	if !detect {
		return reg.Get(cfg.Hospital)
	}
	candidates := reg.Detect(text)
	if len(candidates) == 0 {
		logger.Info("hospital not detected, using configured one", zap.String("hospital", cfg.Hospital))
		return reg.Get(cfg.Hospital)
	}
	best := candidates[0]
	logger.Debug("detected hospital",
		zap.String("hospital", best.Institution.ID),
		zap.Int("hits", best.Hits),
		zap.Int("candidates", len(candidates)))
	return best.Institution, nil
}

func logDiagnostics(path string, d timesheet.Diagnostics) {
	logger.Debug("parsed roster",
		zap.String("file", path),
		zap.Int("lines", d.Lines),
		zap.Int("skipped", d.Skipped),
		zap.Int("primary", d.Primary),
		zap.Int("on_call", d.OnCall),
		zap.Int("composites", d.Composites))
	if d.BeforeHeader > 0 {
		logger.Warn("entries before the month header were ignored",
			zap.String("file", path), zap.Int("count", d.BeforeHeader))
	}
	if len(d.InvalidDates) > 0 {
		logger.Warn("lines with invalid dates were skipped",
			zap.String("file", path), zap.Ints("lines", d.InvalidDates))
	}
	for _, c := range d.Cuts {
		logger.Warn("duty chain cut at link limit",
			zap.String("file", path),
			zap.String("date", c.Date),
			zap.String("start", c.Start),
			zap.Int("line", c.Line))
	}
	if len(d.Unknown) > 0 {
		logger.Warn("time ranges without mapping",
			zap.String("file", path), zap.Strings("ranges", d.Unknown))
	}
}

func printConverted(r converted) {
	m := r.month
	fmt.Printf("%s → %s (%s, %d entries)\n", filepath.Base(r.path), m.Key(), m.Hospital, len(m.Entries))
	printEntries(m.Entries)
	if len(r.diag.Unknown) > 0 {
		fmt.Println()
		fmt.Println("Unknown time ranges (add them with: shiftplan mappings set <range> <code>):")
		for _, k := range r.diag.Unknown {
			fmt.Printf("  %s\n", k)
		}
	}
	fmt.Println()
}
