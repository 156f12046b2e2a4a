package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telecaller-platform/internal/auth"
	"telecaller-platform/internal/callcontext"
	"telecaller-platform/internal/calllog"
	"telecaller-platform/internal/catalog"
	"telecaller-platform/internal/config"
	"telecaller-platform/internal/conversation"
	"telecaller-platform/internal/httpapi"
	"telecaller-platform/internal/llm"
	"telecaller-platform/internal/notify"
	"telecaller-platform/internal/orchestrator"
	"telecaller-platform/internal/reporting"
	"telecaller-platform/internal/telephony"
	"telecaller-platform/internal/transcript"
	"telecaller-platform/pkg/logger"
	"telecaller-platform/pkg/utils"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Missing .env is fine; containers inject env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, catalogStore, callStore, err := openStores(rootCtx, cfg)
	if err != nil {
		log.Error("store init failed", "driver", cfg.DB.Driver, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	var responder conversation.Responder = conversation.StaticResponder{}
	if cfg.OpenAI.APIKey != "" {
		responder = llm.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Temperature, log)
	} else {
		log.Warn("OPENAI_API_KEY not set, running on static stage scripts")
	}

	var transcripts *transcript.Store
	if cfg.Calls.TranscriptDir != "" {
		transcripts, err = transcript.NewStore(cfg.Calls.TranscriptDir)
		if err != nil {
			log.Error("transcript store init failed", "dir", cfg.Calls.TranscriptDir, "err", err)
			os.Exit(1)
		}
	}

	provider := telephony.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken)
	resolver := callcontext.NewResolver(catalogStore, log)
	engine := conversation.NewEngine(responder, cfg.Calls.MaxExchanges, cfg.Calls.MaxDuration, log)

	emailSender, smsSender := newNotifySenders(rootCtx, cfg, log)

	otpStore, err := newOTPStore(rootCtx, cfg, db)
	if err != nil {
		log.Error("otp store init failed", "driver", cfg.DB.Driver, "err", err)
		os.Exit(1)
	}
	otpSvc := notify.NewOTPService(emailSender, smsSender, otpStore, rdb,
		cfg.OTP.TTL, cfg.OTP.RateLimitMax, cfg.OTP.RateLimitWindow, log)

	var followUp orchestrator.FollowUpSender
	if emailSender != nil {
		followUp = notify.NewFollowUpMailer(emailSender, catalogStore, log)
	}

	callSvc := orchestrator.NewService(orchestrator.Options{
		FromNumber:       cfg.Twilio.FromNumber,
		VoiceWebhookURL:  cfg.VoiceWebhookURL(),
		StatusWebhookURL: cfg.StatusWebhookURL(),
		MaxActiveCalls:   cfg.Calls.MaxActive,
		MaxCallDuration:  cfg.Calls.MaxDuration,
	}, provider, resolver, engine, callStore, transcripts, followUp, rdb, log)

	h := httpapi.Handlers{
		Auth:     authManager,
		AuthCfg:  cfg.Auth,
		Catalog:  catalogStore,
		Calls:    callSvc,
		Campaign: orchestrator.NewCampaign(callSvc, catalogStore, log),
		Reports:  reporting.NewService(callStore),
		OTP:      otpSvc,
		Log:      log,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, authManager)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "db_driver", cfg.DB.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

// openStores opens the configured database and runs migrations for the
// catalog and call log tables.
func openStores(ctx context.Context, cfg config.Config) (*sql.DB, catalog.Store, calllog.Store, error) {
	switch cfg.DB.Driver {
	case "sqlite":
		db, err := utils.OpenSQLite(ctx, cfg.DB.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		cat := catalog.NewSQLiteStore(db)
		calls := calllog.NewSQLiteStore(db)
		if err := cat.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		if err := calls.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return db, cat, calls, nil
	default:
		db, err := utils.OpenPostgres(ctx, cfg.PostgresDSN(), utils.DBPoolConfig{})
		if err != nil {
			return nil, nil, nil, err
		}
		cat := catalog.NewPostgresStore(db)
		calls := calllog.NewPostgresStore(db)
		if err := cat.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		if err := calls.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return db, cat, calls, nil
	}
}

// newNotifySenders wires SES and SNS senders when AWS configuration is
// present. Missing senders leave the matching channel disabled.
func newNotifySenders(ctx context.Context, cfg config.Config, log *slog.Logger) (notify.EmailSender, notify.SMSSender) {
	var email notify.EmailSender
	var sms notify.SMSSender

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		log.Warn("aws config load failed, email/sms delivery disabled", "err", err)
		return nil, nil
	}
	if cfg.AWS.EmailSender != "" {
		sender, err := notify.NewSESEmailSender(sesv2.NewFromConfig(awsCfg), cfg.AWS.EmailSender)
		if err != nil {
			log.Warn("ses sender init failed", "err", err)
		} else {
			email = sender
		}
	}
	sender, err := notify.NewSNSSMSSender(sns.NewFromConfig(awsCfg), cfg.AWS.SMSSenderID)
	if err != nil {
		log.Warn("sns sender init failed", "err", err)
	} else {
		sms = sender
	}
	return email, sms
}

// newOTPStore backs OTP codes with the same database engine as the
// rest of the platform, one row per issued code.
func newOTPStore(ctx context.Context, cfg config.Config, db *sql.DB) (notify.OTPStore, error) {
	switch cfg.DB.Driver {
	case "sqlite":
		store := notify.NewSQLiteOTPStore(db)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		store := notify.NewPostgresOTPStore(db)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
}
