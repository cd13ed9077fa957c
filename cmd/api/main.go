package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"finreport_analyzer/pkg/api/analyze"
	"finreport_analyzer/pkg/api/config"
	"finreport_analyzer/pkg/api/server"
	"finreport_analyzer/pkg/core/agent"
	"finreport_analyzer/pkg/core/logging"
	"finreport_analyzer/pkg/core/pipeline"
	"finreport_analyzer/pkg/core/prompt"
	"finreport_analyzer/pkg/core/settings"
	"finreport_analyzer/pkg/core/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	cfg, err := settings.Load()
	if err != nil {
		boot := logging.New("info", "console")
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(cfg.Level, cfg.Format)

	// Prompt overrides: resources/ in the working directory, else next to
	// the executable. Built-in prompts are used when neither exists.
	resourcesPath := cfg.Paths.Prompts
	if _, err := os.Stat(resourcesPath); os.IsNotExist(err) && !filepath.IsAbs(resourcesPath) {
		exePath, _ := os.Executable()
		resourcesPath = filepath.Join(filepath.Dir(exePath), resourcesPath)
	}
	if _, err := os.Stat(resourcesPath); err == nil {
		if err := prompt.LoadFromDirectory(resourcesPath); err != nil {
			log.Warn().Err(err).Str("dir", resourcesPath).Msg("failed to load prompt library, using built-in prompts")
		}
	}
	log.Info().Strs("prompts", prompt.Get().ListPrompts()).Msg("prompt library ready")

	// Initialize manager from config
	agentCfg, err := settings.LoadModels(cfg.Paths.Models)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model routing")
	}
	agentMgr := agent.NewManager(agentCfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo := openReports(ctx, cfg, log)
	defer closeRepo()

	metrics := server.NewMetrics()
	opts := []pipeline.Option{pipeline.WithLLM(agentMgr), pipeline.WithObserver(metrics)}
	if repo != nil {
		opts = append(opts, pipeline.WithRepository(repo))
	}
	orch := pipeline.New(cfg.Pipeline(), log, opts...)

	router := server.NewRouter(server.Deps{
		Analyze:        analyze.NewHandler(orch, repo, log).WithMaxUpload(cfg.MaxUploadMB << 20),
		Config:         config.NewHandler(agentMgr, log),
		Metrics:        metrics,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().
		Str("addr", srv.Addr).
		Str("provider", agentMgr.GetActiveProvider()).
		Str("llm_mode", cfg.Analysis.LLM).
		Str("extraction", cfg.Analysis.Extraction).
		Msg("API server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

// openReports builds the report vault: Postgres when configured, with the
// file store as fallback.
func openReports(ctx context.Context, cfg *settings.Settings, log zerolog.Logger) (store.ReportRepository, func()) {
	if cfg.Storage.Disabled {
		log.Info().Msg("report storage disabled")
		return nil, func() {}
	}
	files, err := store.NewFileReportRepo(cfg.ReportDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open report directory")
	}
	if cfg.DatabaseURL == "" {
		log.Info().Str("dir", cfg.ReportDir).Msg("storing reports on disk")
		return files, func() {}
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, storing reports on disk")
		return files, func() {}
	}
	log.Info().Msg("storing reports in postgres")
	return store.NewVault(store.NewPGReportRepo(pool), files), pool.Close
}
