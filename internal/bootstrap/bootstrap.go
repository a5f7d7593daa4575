package bootstrap

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	accessinadapter "pdfmerge/internal/modules/access/adapter/in"
	accessoutadapter "pdfmerge/internal/modules/access/adapter/out"
	accessout "pdfmerge/internal/modules/access/port/out"
	accessservice "pdfmerge/internal/modules/access/service"
	accessusecase "pdfmerge/internal/modules/access/usecase"
	assemblerinadapter "pdfmerge/internal/modules/assembler/adapter/in"
	assembleroutadapter "pdfmerge/internal/modules/assembler/adapter/out"
	assemblerservice "pdfmerge/internal/modules/assembler/service"
	assemblerusecase "pdfmerge/internal/modules/assembler/usecase"
	"pdfmerge/internal/platform/clock"
	"pdfmerge/internal/platform/config"
	"pdfmerge/internal/platform/id"
	"pdfmerge/internal/platform/logger"
	uiapp "pdfmerge/internal/ui/app"
)

type Mode int

const (
	ModeCLI Mode = iota
	ModeTUI
)

type App struct {
	Config       config.Config
	Log          logger.Logger
	AccessCLI    accessinadapter.CLIHandler
	AssemblerCLI assemblerinadapter.CLIHandler
	AssemblerTUI assemblerinadapter.TUIHandler
	Changes      *uiapp.ChangeFeed

	closers []func() error
}

func New(cfg config.Config, mode Mode) (*App, error) {
	log, err := logger.New(logger.Options{
		FilePath: cfg.Log.File,
		Level:    cfg.Log.Level,
		Console:  mode == ModeCLI,
	})
	if err != nil {
		return nil, fmt.Errorf("new logger: %w", err)
	}
	app := &App{Config: cfg, Log: log}
	app.closers = append(app.closers, log.Sync)

	store, err := newStore(cfg, app)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	accessUC := accessusecase.NewInteractor(accessservice.NewAccessService(
		clock.SystemClock{},
		store,
		log,
		accessservice.Options{
			CredentialDigest:    cfg.CredentialDigest,
			SessionDuration:     cfg.SessionDuration(),
			DevelopmentOverride: cfg.DevelopmentOverride,
		},
	))

	reader, err := assembleroutadapter.NewLocalPDFReader()
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("new pdf reader: %w", err)
	}
	var launcher assembleroutadapter.Launcher
	if cfg.OpenAfterSave {
		launcher = assembleroutadapter.NewOSLauncher()
	}
	assemblerSvc := assemblerservice.NewAssemblerService(
		reader,
		assembleroutadapter.NewPDFCPUWriter(),
		assembleroutadapter.NewDirSaveSink(cfg.OutputDir, launcher, log),
		assembleroutadapter.NewMemoryPreviewCache(),
		id.RandomHex{Prefix: "doc-"},
		log,
		assemblerservice.Options{PreviewScale: cfg.Preview.Scale, PreviewWorkers: cfg.Preview.Workers},
	)
	app.Changes = uiapp.NewChangeFeed()
	assemblerSvc.Subscribe(app.Changes)
	assemblerUC := assemblerusecase.NewInteractor(assemblerSvc)

	app.AccessCLI = accessinadapter.NewCLIHandler(accessUC)
	app.AssemblerCLI = assemblerinadapter.NewCLIHandler(assemblerUC)
	app.AssemblerTUI = assemblerinadapter.NewTUIHandler(assemblerUC)

	log.Debug("bootstrap", "application wired", map[string]any{
		"config":  cfg.Path,
		"storage": cfg.Storage.Backend,
		"output":  cfg.OutputDir,
	})
	return app, nil
}

func newStore(cfg config.Config, app *App) (accessout.KeyValueStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		store, err := accessoutadapter.NewSQLiteKeyValueStore(cfg.StatePath("state.db"))
		if err != nil {
			return nil, fmt.Errorf("new sqlite store: %w", err)
		}
		app.closers = append(app.closers, store.Close)
		return store, nil
	default:
		return accessoutadapter.NewFileKeyValueStore(cfg.StateDir), nil
	}
}

// Close releases stores and flushes the log, newest first.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.AccessCLI, app.AssemblerTUI, app.Changes.C())
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
