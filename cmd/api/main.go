package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Application Layer
	appService "notifier/internal/application/service"
	"notifier/internal/config"
	"notifier/internal/domain/constant"

	// Infrastructure Layer
	"notifier/internal/infrastructure/channel"
	"notifier/internal/infrastructure/database/sqlite"
	lineClient "notifier/internal/infrastructure/line"
	"notifier/internal/infrastructure/scheduler"

	// Interfaces Layer
	"notifier/internal/interfaces/api/handler"
	"notifier/internal/interfaces/api/router"

	// Packages
	appLogger "notifier/internal/pkg/logger"
	"notifier/internal/pkg/retry"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
	"gorm.io/gorm"
)

func gracefulShutdown(apiServer *http.Server, engine *appService.Engine, db *gorm.DB, appLog appLogger.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	appLog.Info("Shutting down gracefully, press Ctrl+C again to force")

	// Stop accepting requests first so no new sends start
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", err)
	}

	// Stop the scheduler; an in-flight scan finishes its started sends
	appLog.Info("Stopping notification engine...")
	engine.Stop()

	appLog.Info("Closing database connection...")
	if err := sqlite.CloseDB(db); err != nil {
		appLog.Error("Error closing database", err)
	}

	appLog.Info("Server exiting")
	done <- true
}

// buildChannels registers every channel that has a provider. Channels without
// one are simulated when SIMULATE_CHANNELS is set, skipped when no kind uses
// them, and fail startup otherwise.
func buildChannels(ctx context.Context, cfg *config.Config, appLog appLogger.Logger) ([]appService.ChannelRegistration, error) {
	policy := retry.Policy{
		MaxAttempts: cfg.SendMaxAttempts,
		Delay:       cfg.SendRetryDelay,
		Linear:      cfg.SendRetryLinear,
	}

	adapters := map[constant.Channel]channel.Sender{}
	unavailable := map[constant.Channel]error{}

	if s, err := channel.NewTwilioSender(channel.TwilioConfig{
		AccountSID:          cfg.Twilio.AccountSID,
		AuthToken:           cfg.Twilio.AuthToken,
		FromNumber:          cfg.Twilio.FromNumber,
		MessagingServiceSID: cfg.Twilio.MessagingServiceSID,
	}); err == nil {
		adapters[constant.ChannelSMS] = s
	} else {
		unavailable[constant.ChannelSMS] = err
	}

	if cfg.SNS.Enabled {
		s, err := channel.NewSNSSender(ctx, channel.SNSConfig{
			Region:   cfg.SNS.Region,
			SenderID: cfg.SNS.SenderID,
			SMSType:  cfg.SNS.SMSType,
		})
		if err == nil {
			adapters[constant.ChannelSMSSNS] = s
		} else {
			unavailable[constant.ChannelSMSSNS] = err
		}
	} else {
		unavailable[constant.ChannelSMSSNS] = fmt.Errorf("SNS_ENABLED is false")
	}

	if s, err := channel.NewBrevoSender(channel.BrevoConfig{
		APIKey:      cfg.Brevo.APIKey,
		SenderEmail: cfg.Brevo.SenderEmail,
		SenderName:  cfg.Brevo.SenderName,
	}); err == nil {
		adapters[constant.ChannelEmail] = s
	} else {
		unavailable[constant.ChannelEmail] = err
	}

	if c, err := lineClient.NewClient(lineClient.Config{
		ChannelSecret:      cfg.Line.ChannelSecret,
		ChannelAccessToken: cfg.Line.ChannelAccessToken,
	}, appLog); err == nil {
		adapters[constant.ChannelLine] = c
	} else {
		unavailable[constant.ChannelLine] = err
	}

	shapes := map[constant.Channel]constant.Shape{
		constant.ChannelSMS:    constant.ShapeSMS,
		constant.ChannelSMSSNS: constant.ShapeSMS,
		constant.ChannelEmail:  constant.ShapeEmail,
		constant.ChannelLine:   constant.ShapeLine,
	}

	var regs []appService.ChannelRegistration
	for _, ch := range config.AllChannels() {
		sender, ok := adapters[ch]
		switch {
		case ok:
		case cfg.SimulateChannels:
			appLog.Warn(fmt.Sprintf("%s channel is simulated: %v", ch, unavailable[ch]))
			sender = channel.NewSimulated(string(ch), appLog)
		case cfg.InKindOrder(ch):
			return nil, fmt.Errorf("%s channel is not available: %w", ch, unavailable[ch])
		default:
			appLog.Info(fmt.Sprintf("%s channel disabled: %v", ch, unavailable[ch]))
			continue
		}
		cc := cfg.Channels[ch]
		regs = append(regs, appService.ChannelRegistration{
			Channel: ch,
			Shape:   shapes[ch],
			Adapter: channel.NewRateLimited(sender, cc.RatePerSecond, 1),
			Caps: appService.Caps{
				Daily:          cc.DailyCap,
				Monthly:        cc.MonthlyCap,
				CostPerMessage: cc.CostPerMessage,
			},
			Retry: policy,
		})
	}
	return regs, nil
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Initialization ---
	appLog, err := appLogger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync(appLog)
	appLog.Info("Logger initialized.")

	// --- Infrastructure ---
	db, err := sqlite.NewDB(cfg.DBURL, cfg.DBLogLevel)
	if err != nil {
		appLog.Error("Failed to open database", err)
		os.Exit(1)
	}
	appLog.Info("Database and repositories initialized.")

	cronScheduler := scheduler.NewScheduler(appLog)

	channels, err := buildChannels(context.Background(), cfg, appLog)
	if err != nil {
		appLog.Error("Failed to set up delivery channels", err)
		os.Exit(1)
	}

	// --- Engine ---
	engine, err := appService.NewEngine(appService.EngineConfig{
		Channels:           channels,
		KindOrder:          cfg.KindOrder,
		DefaultCountryCode: cfg.DefaultCountryCode,
		TemplateDefaults: map[string]string{
			"business_name":  cfg.BusinessName,
			"business_phone": cfg.BusinessPhone,
		},
		Location:         cfg.Location,
		WindowStart:      cfg.WindowStart,
		WindowEnd:        cfg.WindowEnd,
		ScanWorkers:      cfg.ScanWorkers,
		ScanInterval:     cfg.ScanInterval,
		SendTimeout:      cfg.SendTimeout,
		HistoryRetention: cfg.HistoryRetention,
	}, appService.EngineDeps{
		Attempts:     sqlite.NewAttemptRepository(db),
		Quotas:       sqlite.NewQuotaRepository(db),
		Appointments: sqlite.NewAppointmentRepository(db),
		State:        sqlite.NewStateRepository(db),
		Cron:         cronScheduler,
		Logger:       appLog,
	})
	if err != nil {
		appLog.Error("Failed to build notification engine", err)
		os.Exit(1)
	}
	appLog.Info("Application services initialized.")

	if err := engine.Start(context.Background()); err != nil {
		appLog.Error("Failed to start reminder scheduler", err)
		os.Exit(1)
	}

	// --- API Handlers & Router ---
	notificationHandler := handler.NewNotificationHandler(engine, appLog)
	echoRouter := router.NewRouter(&router.Config{
		NotificationHandler: notificationHandler,
		Logger:              appLog,
	})

	// --- HTTP Server ---
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      echoRouter,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	// --- Start Server & Shutdown Handling ---
	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, engine, db, appLog, done)

	appLog.Info(fmt.Sprintf("Server starting on port %d", cfg.Port))
	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		appLog.Error("HTTP server ListenAndServe error", err)
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for graceful shutdown signal
	<-done
	appLog.Info("Graceful shutdown complete.")
}
