package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kamiltczarnik/Lira/advisor"
	"github.com/Kamiltczarnik/Lira/api"
	"github.com/Kamiltczarnik/Lira/cache"
	"github.com/Kamiltczarnik/Lira/config"
	"github.com/Kamiltczarnik/Lira/logging"
	"github.com/Kamiltczarnik/Lira/nessie"
	"github.com/Kamiltczarnik/Lira/speech"
	"github.com/Kamiltczarnik/Lira/store"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the Lira HTTP API.

The product catalog is loaded once at startup; a missing or malformed catalog aborts.
Customer records come from the built-in mock ledger unless LEDGER_MODE=nessie.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

// setup loads configuration and the logger shared by every subcommand.
func setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.ProcessEnvironmentVariables(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger, err := logging.SetupLogging(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func loadCatalog(cfg *config.Config, logger *logrus.Logger) *store.Catalog {
	catalog, err := store.LoadFile(cfg.CatalogPath)
	if err != nil {
		logger.WithError(err).WithField("path", cfg.CatalogPath).Fatal("store.LoadFile")
	}
	counts := catalog.Counts()
	logger.WithFields(logrus.Fields{
		"path":         cfg.CatalogPath,
		"bankAccounts": counts[store.BankAccountsTable],
		"creditCards":  counts[store.CreditCardsTable],
		"loans":        counts[store.LoansTable],
	}).Info("Catalog.Loaded")
	return catalog
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	logger.WithField("version", Version).Info("lira starting")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog := loadCatalog(cfg, logger)

	records, closeRecords, err := buildRecords(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRecords()

	completer, err := buildCompleter(ctx, cfg)
	if err != nil {
		return err
	}
	adv := advisor.New(catalog, completer, cfg.ChatModel, cfg.ChatTimeout, logger)

	narrator, closeSpeech := buildNarrator(ctx, cfg, logger)
	defer closeSpeech()

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(catalog, records, adv, narrator, logger)
	router := api.NewRouter(handler, logger, api.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		AudioDir:    cfg.AudioDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("Server.Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Server.ShuttingDown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildRecords picks the mock or Nessie customer-record service and puts the redis
// profile cache in front of it when REDIS_ADDR is set.
func buildRecords(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (nessie.Records, func(), error) {
	var records nessie.Records
	switch cfg.LedgerMode {
	case config.LedgerModeNessie:
		records = nessie.NewClient(cfg.NessieBaseURL, cfg.NessieAPIKey, cfg.NessieTimeout, logger)
	default:
		records = nessie.NewMockClient()
	}
	logger.WithField("mode", cfg.LedgerMode).Info("Records.Ready")

	if cfg.RedisAddr == "" {
		return records, func() {}, nil
	}

	client, err := cache.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	logger.WithFields(logrus.Fields{"addr": cfg.RedisAddr, "ttl": cfg.CacheTTL.String()}).Info("Cache.Ready")

	cached := nessie.NewCachedRecords(records, nessie.ProfileCache(client, cfg.CacheTTL, logger))
	return cached, func() { _ = client.Close() }, nil
}

func buildCompleter(ctx context.Context, cfg *config.Config) (advisor.Completer, error) {
	switch cfg.ChatProvider {
	case config.ChatProviderGemini:
		completer, err := advisor.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, "")
		if err != nil {
			return nil, err
		}
		return completer, nil
	default:
		return advisor.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
	}
}

// buildNarrator never fails startup: when speech cannot be set up the API runs without audio.
func buildNarrator(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (api.Narrator, func()) {
	noop := func() {}
	if !cfg.SpeechEnabled {
		return nil, noop
	}

	synth, err := speech.NewGoogleSynthesizer(ctx)
	if err != nil {
		logger.WithError(err).Warn("Speech.Disabled")
		return nil, noop
	}

	var audioStore speech.AudioStore = speech.NewLocalStore(cfg.AudioDir, api.AudioURLPrefix)
	closers := []func() error{synth.Close}
	if cfg.AudioBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			logger.WithError(err).Warn("Speech.Disabled")
			_ = synth.Close()
			return nil, noop
		}
		audioStore = speech.NewGCSStore(client, cfg.AudioBucket)
		closers = append(closers, client.Close)
	}

	logger.WithFields(logrus.Fields{
		"language": cfg.SpeechLanguage,
		"bucket":   cfg.AudioBucket,
		"timeout":  cfg.SpeechTimeout.String(),
	}).Info("Speech.Ready")

	return speech.NewNarrator(synth, audioStore, cfg.SpeechLanguage, cfg.SpeechTimeout, logger), func() {
		for _, closeFn := range closers {
			_ = closeFn()
		}
	}
}
