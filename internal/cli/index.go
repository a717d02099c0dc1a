package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"studyrag/internal/adapter/fs"
	"studyrag/internal/usecase"
)

var indexQuiet bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a directory of study files",
	Long: `Index the text files in a directory. New and modified files are added,
files that disappeared are removed, and unchanged files are skipped.
The index snapshot is stored in the configured cache directory.

Examples:
  studyrag index .          # Index current directory
  studyrag index ~/notes    # Index specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexQuiet, "quiet", false, "hide the progress bar")
}

// resolveDir returns the directory argument, or the root directory when none
// is given, after checking that it exists.
func resolveDir(args []string) (string, error) {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return "", fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", path)
	}
	return path, nil
}

func newSyncUseCase(engine *usecase.Engine) *usecase.SyncUseCase {
	cfg := GetConfig()
	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	return usecase.NewSyncUseCase(engine, walker, fs.NewTextReader(), GetLogger())
}

func runIndex(cmd *cobra.Command, args []string) error {
	path, err := resolveDir(args)
	if err != nil {
		return err
	}

	engine, dbPath, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning %s...\n", path)

	var progress usecase.SyncProgress
	if !indexQuiet {
		progress = newSyncProgress(out)
	}

	result, err := runSync(cmd.Context(), newSyncUseCase(engine), path, progress)
	if err != nil {
		return err
	}

	printSyncResult(out, result)
	fmt.Fprintf(out, "\nIndex stored at: %s\n", dbPath)
	return nil
}

func runSync(ctx context.Context, uc *usecase.SyncUseCase, path string, progress usecase.SyncProgress) (*usecase.SyncResult, error) {
	result, err := uc.Sync(ctx, path, progress)
	if err != nil {
		if result != nil {
			printWarnings(os.Stderr, result.Errors)
		}
		return nil, fmt.Errorf("indexing failed: %w", err)
	}
	return result, nil
}

// newSyncProgress draws one progress bar per sync stage with an ETA.
func newSyncProgress(w io.Writer) usecase.SyncProgress {
	var (
		mu        sync.Mutex
		bar       *progressbar.ProgressBar
		stage     string
		startTime time.Time
	)

	return func(s string, done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil || s != stage {
			if bar != nil {
				_ = bar.Finish()
			}
			stage = s
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription(stageLabel(stage)),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(w)
				}),
			)
		}

		_ = bar.Set(done)

		if done > 0 && done < total {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("%s ETA: %s", stageLabel(stage), formatDuration(eta)))
			}
		}
	}
}

func stageLabel(stage string) string {
	switch stage {
	case "reading":
		return "[cyan]Reading[reset] "
	case "chunking":
		return "[cyan]Chunking[reset]"
	default:
		return "[cyan]" + stage + "[reset]"
	}
}

func printSyncResult(w io.Writer, result *usecase.SyncResult) {
	fmt.Fprintf(w, "\nIndexing complete:\n")
	fmt.Fprintf(w, "  Files indexed:  %d\n", result.FilesIndexed)
	fmt.Fprintf(w, "  Files skipped:  %d (unchanged)\n", result.FilesSkipped)
	fmt.Fprintf(w, "  Files deleted:  %d (removed)\n", result.FilesDeleted)
	fmt.Fprintf(w, "  Total chunks:   %d\n", result.Chunks)
	printWarnings(w, result.Errors)
}

func printWarnings(w io.Writer, errs []string) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(w, "\nWarnings:\n")
	for _, e := range errs {
		fmt.Fprintf(w, "  - %s\n", e)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
