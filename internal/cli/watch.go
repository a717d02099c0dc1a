package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studyrag/internal/adapter/fs"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Keep the index in sync with a directory",
	Long: `Index a directory, then re-index whenever matching files are created,
modified, renamed or deleted. Stops on Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before re-indexing")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path, err := resolveDir(args)
	if err != nil {
		return err
	}

	engine, _, err := openEngine(ctx)
	if err != nil {
		return err
	}
	uc := newSyncUseCase(engine)
	log := GetLogger()
	out := cmd.OutOrStdout()

	result, err := runSync(ctx, uc, path, nil)
	if err != nil {
		return err
	}
	printSyncResult(out, result)

	cfg := GetConfig()
	watcher, err := fs.NewWatcher(path, fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes), watchDebounce, log)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	fmt.Fprintf(out, "\nWatching %s for changes (Ctrl-C to stop)...\n", path)
	err = watcher.Run(ctx, func() {
		result, err := uc.Sync(ctx, path, nil)
		if err != nil {
			log.Error("re-index failed", zap.Error(err))
			return
		}
		if result.FilesIndexed == 0 && result.FilesDeleted == 0 {
			return
		}
		fmt.Fprintf(out, "[%s] indexed %d, deleted %d, %d chunks total\n",
			time.Now().Format(time.TimeOnly), result.FilesIndexed, result.FilesDeleted, result.Chunks)
		for _, e := range result.Errors {
			log.Warn("file skipped", zap.String("reason", e))
		}
	})
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
