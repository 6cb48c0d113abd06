// Command anythingllm-sync keeps an AnythingLLM workspace in sync with
// a set of local directory trees. It uploads and embeds new or changed
// files, removes remote embeddings for files deleted locally, and never
// touches the local files themselves.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gcurrier/anythingllm-document-sync/internal/anythingllm"
	"github.com/gcurrier/anythingllm-document-sync/internal/config"
	"github.com/gcurrier/anythingllm-document-sync/internal/engine"
	"github.com/gcurrier/anythingllm-document-sync/internal/exclude"
	"github.com/gcurrier/anythingllm-document-sync/internal/logging"
	"github.com/gcurrier/anythingllm-document-sync/internal/scanner"
	"github.com/gcurrier/anythingllm-document-sync/internal/tracking"
	"github.com/gcurrier/anythingllm-document-sync/internal/watch"
)

var Version = "dev"

type options struct {
	configPath string
	verbose    bool
	force      bool
	purge      bool
	purgeRaw   bool
	watchMode  bool
}

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "anythingllm-sync",
		Short:   "Sync local directories into an AnythingLLM workspace",
		Version: Version,
		Long: `anythingllm-sync scans the configured directory trees and converges the
AnythingLLM workspace with them: new and changed files are uploaded and
embedded, files removed locally are unembedded remotely. Local files are
never modified. State is tracked per workspace, so interrupted runs
resume where they left off.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	rootCmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.anythingllm-sync/config.yml)")
	rootCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose console output")
	rootCmd.Flags().BoolVar(&opts.force, "force", false, "clear tracking state and re-sync everything")
	rootCmd.Flags().BoolVar(&opts.purge, "purge", false, "unembed every tracked document and exit")
	rootCmd.Flags().BoolVar(&opts.purgeRaw, "purge-raw", false, "also delete raw uploads when unembedding (purge or removal)")
	rootCmd.Flags().BoolVarP(&opts.watchMode, "watch", "w", false, "keep running and re-sync when files change")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	if opts.force && opts.purge {
		return errors.New("--force and --purge are mutually exclusive")
	}

	baseDir, err := config.BaseDir()
	if err != nil {
		return err
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = defaultConfigPath(baseDir)

		// First run: write a starter config and let the user edit it.
		if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
			if err := config.WriteTemplate(configPath); err != nil {
				return err
			}

			fmt.Printf("Created starter config at %s. Edit it and re-run.\n", configPath)

			return nil
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(opts.verbose, logging.DefaultLogPath(baseDir))
	logger.Info("anythingllm-sync starting",
		slog.String("version", Version),
		slog.String("workspace", cfg.WorkspaceSlug),
		slog.Int("roots", len(cfg.FilePaths)),
	)

	rules, err := exclude.NewRules(cfg.DirectoryExcludes, cfg.FileExcludes)
	if err != nil {
		return fmt.Errorf("exclusion rules: %w", err)
	}

	// One sync process per workspace. A stale lock from a crashed run
	// must be removed by hand; the pid inside tells you whose it was.
	lockPath := config.LockPath(baseDir, cfg.WorkspaceSlug)

	release, err := acquireLock(lockPath)
	if err != nil {
		return err
	}
	defer release()

	client := anythingllm.NewHTTPClient(cfg.BaseURL, cfg.APIKey, cfg.WorkspaceSlug, nil)

	if err := client.Auth(ctx); err != nil {
		return fmt.Errorf("authenticating against %s: %w", cfg.BaseURL, err)
	}

	logger.Info("authenticated", slog.String("base_url", cfg.BaseURL))

	store, err := tracking.Open(config.TrackingDBPath(baseDir, cfg.WorkspaceSlug), cfg.WorkspaceSlug)
	if err != nil {
		return fmt.Errorf("opening tracking store: %w", err)
	}
	defer store.Close()

	eng := engine.New(store, client, logger)

	if opts.purge {
		report, err := eng.Purge(ctx, opts.purgeRaw)
		if err != nil {
			return err
		}

		printReport(report)

		return reportErr(report)
	}

	if opts.force {
		logger.Info("force mode: clearing tracking state")

		if err := store.Clear(); err != nil {
			return fmt.Errorf("clearing tracking state: %w", err)
		}
	}

	syncOnce := func(ctx context.Context) error {
		candidates, err := scanner.Scan(cfg.FilePaths, rules, logger)
		if err != nil {
			return err
		}

		report, err := eng.Reconcile(ctx, candidates, opts.purgeRaw)
		if err != nil {
			return err
		}

		printReport(report)

		return reportErr(report)
	}

	if err := syncOnce(ctx); err != nil {
		if !opts.watchMode {
			return err
		}

		// Watch mode keeps going; the next burst of changes retries.
		logger.Warn("initial pass had failures", slog.String("error", err.Error()))
	}

	if !opts.watchMode {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		w := watch.New(cfg.FilePaths, rules, logger)
		return w.Run(gctx, syncOnce)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}

	return err
}

func defaultConfigPath(baseDir string) string {
	return filepath.Join(baseDir, config.DefaultConfigName)
}

// acquireLock takes the per-workspace run lock. The file is created
// exclusively with this process's pid inside; a second instance fails
// fast instead of racing the tracking store.
func acquireLock(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("another sync appears to be running (lock %s exists; delete it if stale)", path)
		}

		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}

	_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
	_ = f.Close()

	return func() { _ = os.Remove(path) }, nil
}

func printReport(r *engine.Report) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	green.Printf("uploaded %d, embedded %d", r.Uploaded, r.Embedded)
	fmt.Printf(", skipped %d", r.Skipped)
	yellow.Printf(", removed %d", r.Removed)

	if r.Failed > 0 {
		red.Printf(", failed %d", r.Failed)
	}

	fmt.Println()

	for _, f := range r.Failures {
		red.Printf("  %s: %s: %v\n", f.Op, f.Path, f.Err)
	}
}

func reportErr(r *engine.Report) error {
	if r.Failed > 0 {
		return fmt.Errorf("%d actions failed; re-run to retry, see the log for details", r.Failed)
	}

	return nil
}
