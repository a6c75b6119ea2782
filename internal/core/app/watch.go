package app

import (
	"context"
	"log/slog"

	"koinlint/internal/core/config"
	"koinlint/internal/core/watcher"
	"koinlint/internal/shared/observability"
	"koinlint/internal/shared/util"
)

// Watch re-analyzes changed files until ctx is cancelled. Re-analyses are
// rate limited by watch.rate_per_second; batches arriving while a run waits
// are merged into it. When configPath is set and watch.reload_config is on,
// edits to the config file reconfigure the rules and trigger a full run.
func (a *App) Watch(ctx context.Context, configPath string) error {
	changes := make(chan []string, 16)
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, a.Config.Exclude.Dirs, a.Config.Exclude.Files, func(paths []string) {
		select {
		case changes <- paths:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()
	w.SetExtensions(a.Parser.SupportedExtensions())
	w.SetIgnore(func(path string, isDir bool) bool {
		return a.currentScanner().GitIgnored(path, isDir)
	})
	if err := w.Watch(uniqueRoots(a.Paths.ScanPaths)); err != nil {
		return err
	}

	reloads := make(chan *config.Config, 1)
	if configPath != "" && a.Config.Watch.ReloadConfig {
		cw := config.NewWatcher(configPath, func(cfg *config.Config) {
			select {
			case reloads <- cfg:
			case <-ctx.Done():
			}
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config reload disabled", "path", configPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	limiter := util.NewLimiter(a.Config.Watch.RatePerSecond, a.Config.Watch.Burst)
	slog.Info("watching for changes", "paths", a.Paths.ScanPaths, "debounce", a.Config.Watch.Debounce)

	for {
		select {
		case <-ctx.Done():
			return nil

		case paths := <-changes:
			throttled := limiter.Throttled()
			if err := limiter.Wait(ctx, 1); err != nil {
				return nil
			}
			if limiter.Throttled() > throttled {
				observability.WatchRunsThrottledTotal.Inc()
			}
			paths = mergePending(changes, paths)
			if _, err := a.HandleChanges(ctx, paths); err != nil && ctx.Err() == nil {
				slog.Error("re-analysis failed", "error", err)
			}

		case cfg := <-reloads:
			if err := a.Reconfigure(cfg); err != nil {
				slog.Error("failed to apply reloaded config", "error", err)
				continue
			}
			if _, err := a.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("analysis after config reload failed", "error", err)
			}
		}
	}
}

// mergePending folds any queued batches into paths without blocking.
func mergePending(changes <-chan []string, paths []string) []string {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	for {
		select {
		case more := <-changes:
			for _, p := range more {
				set[p] = true
			}
		default:
			return util.SortedStringKeys(set)
		}
	}
}
