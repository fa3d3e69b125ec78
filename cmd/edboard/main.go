package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/alexanderramin/edboard/internal/board"
	"github.com/alexanderramin/edboard/internal/cli"
	"github.com/alexanderramin/edboard/internal/config"
	"github.com/alexanderramin/edboard/internal/db"
	"github.com/alexanderramin/edboard/internal/logging"
	"github.com/alexanderramin/edboard/internal/preferences"
	"github.com/alexanderramin/edboard/internal/repository"
	"github.com/alexanderramin/edboard/internal/service"
)

// fullScreenCommands own the terminal, so logs must not go to stderr.
var fullScreenCommands = []string{"board", "display"}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// The config file is needed before the command tree exists, so --config
	// is read here and declared again on the root command.
	pre := pflag.NewFlagSet("edboard", pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.SetOutput(io.Discard)
	pre.Usage = func() {}
	configPath := pre.String("config", "", "")
	_ = pre.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	matrix, err := cfg.Matrix()
	if err != nil {
		return err
	}

	logFile := cfg.Log.File
	if logFile == "" && len(pre.Args()) > 0 && slices.Contains(fullScreenCommands, pre.Args()[0]) {
		logFile = "-"
	}
	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    logFile,
		Service: "edboard",
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.ConductEnabled() {
		logger.Warn("conduct_threshold not set; observation alarms are disabled")
	}

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories and services
	patientRepo := repository.NewSQLitePatientRepo(database)
	prefsRepo := repository.NewSQLitePreferencesRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	patients := service.NewPatientService(patientRepo, uow, service.NewZapUseCaseObserver(logger))

	app := &cli.App{
		Patients: patients,
		Board: board.New(patients, board.Options{
			Matrix:           matrix,
			ConductThreshold: cfg.ConductThreshold,
			FetchTimeout:     cfg.FetchTimeout,
			Logger:           logger.Named("board"),
		}),
		Preferences:   preferences.NewCache(prefsRepo, cfg.Areas, logger.Named("preferences")),
		Logger:        logger,
		User:          cfg.User,
		Areas:         cfg.Areas,
		PollInterval:  cfg.PollInterval,
		BlinkInterval: cfg.BlinkInterval,
		HTTPAddr:      cfg.HTTP.Addr,
	}

	// Detect interactive terminal for the full-screen commands.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	logger.Debug("starting", zap.String("db_path", cfg.DBPath), zap.Strings("areas", cfg.Areas))

	// Execute root command
	return cli.NewRootCmd(app).Execute()
}
