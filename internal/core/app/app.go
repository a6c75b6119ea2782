package app

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"koinlint/internal/core/config"
	"koinlint/internal/data/history"
	"koinlint/internal/engine/koin"
	"koinlint/internal/engine/parser"
	"koinlint/internal/engine/rules"
	"koinlint/internal/ui/report/formats"
)

// Update is published after every analysis pass.
type Update struct {
	Report formats.Report
}

// App owns one project: its configuration, parser, per-file results and
// optional run history.
type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths
	Parser *parser.Parser

	scanner *Scanner
	history *history.Store
	out     io.Writer

	// guarded by mu
	mu       sync.RWMutex
	options  koin.Options
	settings map[string]rules.Setting
	results  map[string]fileResult
	last     formats.Report

	updateMu sync.RWMutex
	onUpdate func(Update)
}

// fileResult is the outcome of analyzing one file.
type fileResult struct {
	report   formats.FileReport
	modules  int
	bindings int
	parsed   bool
}

// New wires the parser, scanner and history store for cfg. Reports are written
// to stdout unless SetOutput or output.path says otherwise.
func New(cfg *config.Config, paths config.ResolvedPaths) (*App, error) {
	backend, err := parser.ParseBackend(cfg.Parser.Backend)
	if err != nil {
		return nil, err
	}
	loader, err := parser.NewGrammarLoader(paths.GrammarsPath, cfg.GrammarVerification.IsEnabled())
	if err != nil {
		return nil, err
	}
	p, err := parser.NewParser(loader, backend)
	if err != nil {
		return nil, err
	}
	slog.Debug("parser ready", "backend", p.SupplierName(), "grammars", loader.Describe())

	scanner, err := NewScanner(cfg.Exclude, p.SupportedExtensions())
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Paths:    paths,
		Parser:   p,
		scanner:  scanner,
		out:      os.Stdout,
		options:  cfg.AnalyzerOptions(),
		settings: cfg.RuleSettings(),
		results:  make(map[string]fileResult),
	}

	if cfg.History.Enabled {
		store, err := history.Open(paths.HistoryPath, cfg.History.BusyTimeout)
		if err != nil {
			return nil, err
		}
		a.history = store
	}
	return a, nil
}

// Close releases the history store.
func (a *App) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// SetOutput redirects stdout reports. A nil writer disables them; output.path
// is still honored.
func (a *App) SetOutput(w io.Writer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.out = w
}

// Reconfigure swaps in rule settings and analyzer options from cfg. Parser,
// scan paths and history are fixed for the lifetime of the App.
func (a *App) Reconfigure(cfg *config.Config) error {
	scanner, err := NewScanner(cfg.Exclude, a.Parser.SupportedExtensions())
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scanner = scanner
	a.options = cfg.AnalyzerOptions()
	a.settings = cfg.RuleSettings()
	a.Config.Exclude = cfg.Exclude
	a.Config.Analysis = cfg.Analysis
	a.Config.Rules = cfg.Rules
	a.Config.Output = cfg.Output
	return nil
}

// Settings returns the effective rule settings.
func (a *App) Settings() map[string]rules.Setting {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

// CurrentUpdate returns the last published report.
func (a *App) CurrentUpdate() Update {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Update{Report: a.last}
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

func (a *App) currentScanner() *Scanner {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.scanner
}

func (a *App) currentOptions() koin.Options {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.options
}
