package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/bot"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/config"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/detection"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/modules/audit"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/pattern"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/reputation"
	"github.com/TATUMGAMES/TG-MIKROS-MAFIA-BOT-sub002/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := reputation.NewRegistry()
	if domains, err := store.ListSuspiciousDomains(ctx); err != nil {
		logger.Warn("domain registry load failed", zap.Error(err))
	} else {
		for _, domain := range domains {
			registry.AddSuspiciousDomain(domain.Domain, domain.RiskScore)
		}
		logger.Info("domain registry loaded", zap.Int("domains", len(domains)))
	}

	configs := detection.NewConfigStore()
	if rows, err := store.ListDetectionSettings(ctx); err != nil {
		logger.Warn("detection settings load failed", zap.Error(err))
	} else {
		for _, row := range rows {
			configs.Set(row.GuildID, detection.Config{
				Enabled:                       row.Enabled,
				AccountAgeThresholdDays:       row.AccountAgeThresholdDays,
				LinkRestrictionMinutes:        row.LinkRestrictionMinutes,
				MultiChannelSpamThreshold:     row.MultiChannelSpamThreshold,
				MultiChannelTimeWindowSeconds: row.MultiChannelTimeWindowSeconds,
				JoinAndLinkTimeWindowSeconds:  row.JoinAndLinkTimeWindowSeconds,
				AutoAction:                    detection.ParseAutoAction(row.AutoAction),
				ReportToReputation:            row.ReportToReputation,
			})
		}
		logger.Info("detection settings loaded", zap.Int("guilds", len(rows)))
	}

	index := pattern.NewIndex()
	sweeper := pattern.NewSweeper(index,
		time.Duration(cfg.Sweep.IntervalMinutes)*time.Minute,
		time.Duration(cfg.Sweep.RetentionMinutes)*time.Minute,
		logger)
	go sweeper.Run(ctx)

	engine := detection.NewEngine(configs, index, registry, logger)

	reporter := reputation.NewReporter(reputation.ReporterOptions{
		BaseURL:      cfg.Reputation.BaseURL,
		TokenURL:     cfg.Reputation.TokenURL,
		ClientID:     cfg.Reputation.ClientID,
		ClientSecret: cfg.Reputation.ClientSecret,
		APIKeyType:   cfg.Reputation.APIKeyType,
	}, logger)

	auditLogger := audit.NewLogger(store, logger)

	botSvc, err := bot.New(cfg, logger, store, engine, registry, reporter, auditLogger)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	go cleanupLoop(ctx, store, cfg.RetentionDays, logger)

	var server *http.Server
	if cfg.Health.Enabled {
		server = &http.Server{Addr: cfg.Health.Addr}
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if server != nil {
		_ = server.Shutdown(shutdownCtx)
	}
	botSvc.Close(shutdownCtx)
}

// cleanupLoop prunes moderation logs past the retention horizon once a day.
func cleanupLoop(ctx context.Context, store *storage.Store, retentionDays int, logger *zap.Logger) {
	if retentionDays <= 0 {
		return
	}
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.CleanupModerationLogs(ctx, retentionDays); err != nil {
				logger.Warn("moderation log cleanup failed", zap.Error(err))
			}
		}
	}
}
