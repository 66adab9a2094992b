package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Tiliavir/shiftplan/internal/config"
	"github.com/Tiliavir/shiftplan/internal/institution"
	"github.com/Tiliavir/shiftplan/internal/mapping"
	"github.com/Tiliavir/shiftplan/internal/storage"
)

// Exit codes: 1 for usage and input problems, 2 for storage and I/O problems.
const (
	exitUsage = 1
	exitIO    = 2
)

var (
	verbose bool

	flagHospital   string
	flagProfession string
	flagArea       string
	flagPreset     string

	logger = zap.NewNop()
	cfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:   "shiftplan",
	Short: "shiftplan – turn hospital duty rosters into calendar shifts",
	Long: `shiftplan reads monthly duty roster printouts (PDF or text), recognises the
shifts they contain and maps them to shift codes. Converted months are stored
as human-readable JSON files in ~/.shiftplan/ and can be exported or synced
to Google Calendar.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Sync()
	},
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&flagHospital, "hospital", "", "Institution id (overrides config)")
	pf.StringVar(&flagProfession, "profession", "", "Profession group (overrides config)")
	pf.StringVar(&flagArea, "area", "", "Area (overrides config)")
	pf.StringVar(&flagPreset, "preset", "", "Mapping preset (overrides config)")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(mappingsCmd)
	rootCmd.AddCommand(hospitalsCmd)
	rootCmd.AddCommand(anonymizeCmd)
	rootCmd.AddCommand(googleCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
}

// setup builds the logger and loads the configuration for every command.
func setup(cmd *cobra.Command, args []string) error {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.DisableStacktrace = true
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	l, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	logger = l

	c, err := config.Load()
	if err != nil {
		// Broken configs fall back to defaults.
		logger.Warn("using default configuration", zap.Error(err))
	}
	cfg = c
	if flagHospital != "" {
		cfg.Hospital = flagHospital
	}
	if flagProfession != "" {
		cfg.Profession = flagProfession
	}
	if flagArea != "" {
		cfg.Area = flagArea
	}
	if flagPreset != "" {
		cfg.Preset = flagPreset
	}
	logger.Debug("configuration loaded",
		zap.String("hospital", cfg.Hospital),
		zap.String("profession", cfg.Profession),
		zap.String("area", cfg.Area),
		zap.String("preset", cfg.Preset))
	return nil
}

// fail prints err and exits with code.
func fail(code int, err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(code)
}

// baseDir returns the storage root or exits.
func baseDir() string {
	base, err := storage.BaseDir()
	if err != nil {
		fail(exitIO, err)
	}
	return base
}

// registry loads the built-in institutions or exits.
func registry() *institution.Registry {
	reg, err := institution.Default()
	if err != nil {
		fail(exitIO, fmt.Errorf("loading institutions: %w", err))
	}
	return reg
}

// selection is the institution and mapping table a conversion uses.
type selection struct {
	inst       *institution.Institution
	profession string
	area       string
	preset     string
	table      *mapping.Table
	// overridden is true when the table comes from user overrides.
	overridden bool
}

// selectFor resolves the configured profession, area and preset of inst.
// User overrides replace the built-in preset when present.
func selectFor(base string, inst *institution.Institution) (selection, error) {
	sel := selection{inst: inst, profession: cfg.Profession, area: cfg.Area, preset: cfg.Preset}

	overrides, err := storage.LoadOverrides(base, inst.ID, sel.profession, sel.area)
	if err != nil {
		return sel, err
	}
	if t, ok := overrides.Table(sel.preset); ok {
		sel.table, sel.overridden = t, true
		return sel, nil
	}

	t, err := inst.Table(sel.profession, sel.area, sel.preset)
	if err != nil {
		return sel, err
	}
	sel.table = t
	return sel, nil
}

// configured returns the selection for the configured hospital.
func configured(base string, reg *institution.Registry) (selection, error) {
	inst, err := reg.Get(cfg.Hospital)
	if err != nil {
		return selection{}, err
	}
	return selectFor(base, inst)
}

// exitCodeFor maps an error to the CLI exit code.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, institution.ErrUnknown), errors.Is(err, institution.ErrNoPreset):
		return exitUsage
	default:
		return exitIO
	}
}

// colors merges institution colours with the configured ones.
func colors(inst *institution.Institution) map[string]string {
	out := map[string]string{}
	if inst != nil {
		for code, hex := range inst.Colors {
			out[code] = hex
		}
	}
	for code, hex := range cfg.Colors {
		out[code] = hex
	}
	return out
}
