package app

import (
	"bytes"
	"fmt"
	"path/filepath"

	"koinlint/internal/shared/util"
	"koinlint/internal/ui/report"
	"koinlint/internal/ui/report/formats"
)

// writeOutput renders r to output.path when set, otherwise to the App's writer.
func (a *App) writeOutput(r formats.Report) error {
	a.mu.RLock()
	w := a.out
	cfg := a.Config.Output
	a.mu.RUnlock()

	opts := report.Options{
		Color:       cfg.ColorEnabled(),
		ProjectName: filepath.Base(a.Paths.ProjectRoot),
	}

	if target := a.Paths.OutputPath; target != "" {
		opts.Color = false
		var buf bytes.Buffer
		if err := report.Write(&buf, cfg.Format, r, opts); err != nil {
			return err
		}
		if err := util.WriteFileWithDirs(target, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write report %q: %w", target, err)
		}
		return nil
	}
	if w == nil {
		return nil
	}
	return report.Write(w, cfg.Format, r, opts)
}
