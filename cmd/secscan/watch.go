package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"secscan/internal/config"
	"secscan/internal/notify"
	"secscan/internal/scan"
	"secscan/internal/telemetry"
	"secscan/internal/vuln"
)

const watchDebounce = 300 * time.Millisecond

// runWatch scans target once, then again every time the target or its
// manifest changes, until interrupted.
func runWatch(cmd *cobra.Command, scanner *scan.Scanner, settings config.Settings, target string, opts scanOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var verdicts *notify.VerdictWatcher
	if settings.SlackEnabled {
		verdicts = notify.NewVerdictWatcher(notify.NewSlackNotifier(settings.SlackWebhookURL))
	}

	publish := func(rep scan.Report) {
		if err := emit(cmd, settings.OutputFormat, rep, opts.OutDir); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		if verdicts != nil {
			if _, err := verdicts.Observe(ctx, rep.ScanResult); err != nil {
				telemetry.LogError("Failed to send notification", err)
			}
		}
	}

	// An invalid target fails before watching starts.
	rep, err := scanner.Run(ctx, target)
	if err != nil {
		return err
	}
	publish(rep)

	if settings.MetricsAddr != "" {
		go func() {
			if err := telemetry.StartMetricsServer(ctx, settings.MetricsAddr); err != nil {
				telemetry.LogError("Metrics server failed", err, "addr", settings.MetricsAddr)
			}
		}()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	paths := watchedPaths(target, opts)
	for dir := range watchedDirs(paths) {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", target)
	var scanMu sync.Mutex
	watchLoop(ctx, watcher.Events, watcher.Errors, paths, watchDebounce, func() {
		scanMu.Lock()
		defer scanMu.Unlock()
		rep, err := scanner.Run(ctx, target)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return
		}
		publish(rep)
	})
	return nil
}

// watchedPaths returns the absolute paths whose changes trigger a rescan.
func watchedPaths(target string, opts scanOptions) map[string]bool {
	paths := map[string]bool{absPath(target): true}
	if opts.NoDeps {
		return paths
	}
	if opts.Manifest != "" {
		paths[absPath(opts.Manifest)] = true
	} else if manifest, _, ok := vuln.ManifestFor(target); ok {
		paths[absPath(manifest)] = true
	}
	return paths
}

func watchedDirs(paths map[string]bool) map[string]bool {
	dirs := make(map[string]bool, len(paths))
	for p := range paths {
		dirs[filepath.Dir(p)] = true
	}
	return dirs
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// watchLoop calls rescan once events on paths settle for debounce. It returns
// when ctx is done or the event channel closes.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, paths map[string]bool, debounce time.Duration, rescan func()) {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if !paths[absPath(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			telemetry.LogDebug("Change detected", "path", event.Name, "op", event.Op.String())

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, rescan)
			mu.Unlock()
		case err, ok := <-errs:
			if !ok {
				return
			}
			telemetry.LogError("Watcher error", err)
		}
	}
}
