package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftplan/internal/config"
	"github.com/Tiliavir/shiftplan/internal/gcal"
	"github.com/Tiliavir/shiftplan/internal/institution"
)

var (
	googleSyncMonth        string
	googleSyncCalendar     string
	googleSyncDryRun       bool
	googleSyncOnlyImported bool
)

var googleCmd = &cobra.Command{
	Use:   "google",
	Short: "Google Calendar integration",
}

var googleSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replace the calendar events of a month with its shifts",
	Long: `Deletes all events in the date range of the month (or only events created by
shiftplan with --only-imported) and creates one event per shift.`,
	Args: cobra.NoArgs,
	RunE: runGoogleSync,
}

var googleCalendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List the calendars of the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runGoogleCalendars,
}

var googleCalendarsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new calendar for the shifts",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoogleCalendarsCreate,
}

func init() {
	googleSyncCmd.Flags().StringVar(&googleSyncMonth, "month", "", "Month to sync (YYYY-MM); defaults to the latest converted month")
	googleSyncCmd.Flags().StringVar(&googleSyncCalendar, "calendar", "", "Calendar id (overrides config)")
	googleSyncCmd.Flags().BoolVar(&googleSyncDryRun, "dry-run", false, "Print planned operations without changing the calendar")
	googleSyncCmd.Flags().BoolVar(&googleSyncOnlyImported, "only-imported", false, "Only delete events previously created by shiftplan")
	googleCalendarsCmd.AddCommand(googleCalendarsCreateCmd)
	googleCmd.AddCommand(googleSyncCmd, googleCalendarsCmd)
}

// googleClient authenticates and returns a Calendar API client or exits.
func googleClient(ctx context.Context, base string) *gcal.Client {
	creds := gcal.Credentials{ClientID: cfg.Google.ClientID, ClientSecret: cfg.Google.ClientSecret}
	tokenPath := gcal.TokenFilePath(base)

	tok, oc, err := gcal.Authenticate(ctx, creds, tokenPath, os.Stdout, logger)
	if errors.Is(err, gcal.ErrNoCredentials) {
		path, _ := config.FilePath()
		fail(exitUsage, fmt.Errorf("%w; set google.client_id and google.client_secret in %s or %s/%s",
			err, path, config.EnvGoogleClientID, config.EnvGoogleClientSecret))
	}
	if err != nil {
		fail(exitUsage, fmt.Errorf("authentication failed: %w", err))
	}
	return gcal.NewAuthenticatedClient(ctx, tok, oc, tokenPath)
}

func runGoogleSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	base := baseDir()
	m := loadMonth(base, googleSyncMonth)

	calendarID := cfg.Google.CalendarID
	if googleSyncCalendar != "" {
		calendarID = googleSyncCalendar
	}

	var inst *institution.Institution
	if found, err := registry().Get(m.Hospital); err == nil {
		inst = found
	}

	dryTag := ""
	if googleSyncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Printf("Syncing %s (%d shifts) to calendar %s%s...\n", m.Key(), len(m.Entries), calendarID, dryTag)
	fmt.Println()

	client := googleClient(ctx, base)
	result, err := gcal.Sync(ctx, client, m.Entries, gcal.SyncOptions{
		CalendarID:   calendarID,
		Timezone:     cfg.Timezone,
		Colors:       colors(inst),
		OnlyImported: googleSyncOnlyImported,
		DryRun:       googleSyncDryRun,
		Out:          os.Stdout,
		Logger:       logger,
	})
	if err != nil {
		fail(exitIO, fmt.Errorf("sync error: %w", err))
	}

	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  %d created\n", result.Created)
	fmt.Printf("  %d deleted\n", result.Deleted)
	if result.Errors > 0 {
		fmt.Printf("  %d errors\n", result.Errors)
		os.Exit(exitIO)
	}
	return nil
}

func runGoogleCalendars(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := googleClient(ctx, baseDir())

	cals, err := client.ListCalendars(ctx)
	if err != nil {
		fail(exitIO, err)
	}
	for _, c := range cals {
		mark := " "
		if c.ID == cfg.Google.CalendarID || (c.Primary && cfg.Google.CalendarID == config.DefaultCalendarID) {
			mark = "*"
		}
		fmt.Printf("%s %-40s %s\n", mark, c.ID, c.Summary)
	}
	return nil
}

func runGoogleCalendarsCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := googleClient(ctx, baseDir())

	cal, err := client.CreateCalendar(ctx, args[0])
	if err != nil {
		fail(exitIO, fmt.Errorf("creating calendar: %w", err))
	}
	fmt.Printf("Created calendar %q: %s\n", cal.Summary, cal.ID)
	fmt.Printf("Set google.calendar_id in the config or pass --calendar %s to sync into it.\n", cal.ID)
	return nil
}
