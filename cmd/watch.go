package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tiliavir/shiftplan/internal/extract"
	"github.com/Tiliavir/shiftplan/internal/storage"
	"github.com/Tiliavir/shiftplan/internal/timesheet"
	"github.com/Tiliavir/shiftplan/internal/watch"
)

var (
	watchExisting bool
	watchDetect   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Convert rosters as they are saved into a directory",
	Long: `Watches a directory and converts every PDF or text file written into it,
storing the month like convert does. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "Also convert files already in the directory")
	watchCmd.Flags().BoolVar(&watchDetect, "detect", false, "Detect the hospital from each document")
}

func runWatch(cmd *cobra.Command, args []string) error {
	base := baseDir()
	reg := registry()

	handle := func(ctx context.Context, path string) error {
		m, diag, err := convertFile(ctx, base, reg, path, watchDetect)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", path, err)
			return err
		}
		if err := storage.SaveMonth(base, m); err != nil {
			return err
		}
		fmt.Printf("✓ %s → %s (%d entries%s)\n", path, m.Key(), len(m.Entries), unknownNote(diag))
		return nil
	}

	opts := []watch.Option{
		watch.WithLogger(logger),
		watch.WithFilter(func(path string) bool {
			_, err := extract.ForFile(path, logger)
			return err == nil
		}),
	}
	if watchExisting {
		opts = append(opts, watch.WithExisting())
	}

	fmt.Printf("Watching %s for rosters (Ctrl+C to stop)...\n", args[0])
	if err := watch.New(args[0], handle, opts...).Run(cmd.Context()); err != nil {
		logger.Error("watch failed", zap.Error(err))
		fail(exitIO, err)
	}
	return nil
}

func unknownNote(d timesheet.Diagnostics) string {
	if len(d.Unknown) == 0 {
		return ""
	}
	return fmt.Sprintf(", %d unmapped ranges", len(d.Unknown))
}
