package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Anastasiia-on/intention/internal/bot"
	"github.com/Anastasiia-on/intention/internal/dates"
	"github.com/Anastasiia-on/intention/internal/encryption"
	"github.com/Anastasiia-on/intention/internal/jobs"
	"github.com/Anastasiia-on/intention/internal/messaging"
	"github.com/Anastasiia-on/intention/internal/scheduler"
	"github.com/Anastasiia-on/intention/internal/session"
	"github.com/Anastasiia-on/intention/internal/store"
	"github.com/Anastasiia-on/intention/internal/telegram"
	"github.com/Anastasiia-on/intention/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for bot state data
	DefaultStateDir = "/var/lib/intentionbot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "intentionbot.db"
	// DefaultTimezone anchors reminder times and date resolution
	DefaultTimezone = "Europe/Madrid"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	slog.Info("Bootstrapping intention bot")
	if err := run(flags); err != nil {
		slog.Error("Intention bot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Intention bot exited successfully")
}

// Config holds environment configuration
type Config struct {
	BotToken      string
	DatabaseURL   string
	StateDir      string
	EncryptionKey string
	Timezone      string
	AdminID       int64
	ReflectionTTL time.Duration
}

// Flags holds command line flag values
type Flags struct {
	botToken      *string
	dbDSN         *string
	stateDir      *string
	encryptionKey *string
	timezone      *string
	adminID       *int64
	reflectionTTL *time.Duration
}

// initializeLogger sets up structured logging. Debug level is the default;
// LOG_DEBUG=false raises it to info for quieter deployments.
func initializeLogger() {
	level := slog.LevelDebug
	if !util.ParseBoolEnv("LOG_DEBUG", true) {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		BotToken:      os.Getenv("BOT_TOKEN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StateDir:      os.Getenv("INTENTIONBOT_STATE_DIR"),
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
		Timezone:      os.Getenv("REFERENCE_TZ"),
		AdminID:       util.ParseInt64Env("ADMIN_TELEGRAM_ID", 0),
		ReflectionTTL: util.ParseDurationEnv("REFLECTION_PROMPT_TTL", bot.DefaultReflectionTTL),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No INTENTIONBOT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.Timezone == "" {
		config.Timezone = DefaultTimezone
		slog.Debug("No REFERENCE_TZ set, using default", "default_timezone", config.Timezone)
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"BOT_TOKEN_SET", config.BotToken != "",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"INTENTIONBOT_STATE_DIR", config.StateDir,
		"ENCRYPTION_KEY_SET", config.EncryptionKey != "",
		"REFERENCE_TZ", config.Timezone,
		"ADMIN_TELEGRAM_ID_SET", config.AdminID != 0,
		"REFLECTION_PROMPT_TTL", config.ReflectionTTL)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		botToken:      flag.String("bot-token", config.BotToken, "Telegram bot token (overrides $BOT_TOKEN)"),
		dbDSN:         flag.String("db-dsn", config.DatabaseURL, "database DSN, PostgreSQL URL or SQLite file path (overrides $DATABASE_URL)"),
		stateDir:      flag.String("state-dir", config.StateDir, "state directory for bot data (overrides $INTENTIONBOT_STATE_DIR)"),
		encryptionKey: flag.String("encryption-key", config.EncryptionKey, "base64 AES-256 key for payload encryption (overrides $ENCRYPTION_KEY)"),
		timezone:      flag.String("timezone", config.Timezone, "reference timezone for reminders and dates (overrides $REFERENCE_TZ)"),
		adminID:       flag.Int64("admin-id", config.AdminID, "Telegram id of the broadcast admin (overrides $ADMIN_TELEGRAM_ID)"),
		reflectionTTL: flag.Duration("reflection-ttl", config.ReflectionTTL, "how long an evening prompt keeps its intention link (overrides $REFLECTION_PROMPT_TTL)"),
	}

	flag.Parse()

	// Follow the state directory when the DSN was only ever the default path.
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated db-dsn based on state directory", "state_dir", *flags.stateDir)
	}

	slog.Debug("flags parsed",
		"botTokenSet", *flags.botToken != "",
		"dbDSN_set", *flags.dbDSN != "",
		"stateDir", *flags.stateDir,
		"encryptionKeySet", *flags.encryptionKey != "",
		"timezone", *flags.timezone,
		"adminIDSet", *flags.adminID != 0,
		"reflectionTTL", *flags.reflectionTTL)

	return flags
}

// openStore picks the backend from the DSN shape.
func openStore(dsn string) (store.Store, error) {
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgres")
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}

// run wires every component and blocks until SIGINT or SIGTERM.
func run(flags Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(*flags.timezone)
	if err != nil {
		return err
	}

	cipher, err := encryption.NewCipher(*flags.encryptionKey)
	if err != nil {
		return err
	}

	st, err := openStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Store close failed", "error", err)
		}
	}()

	client, err := telegram.NewClient(telegram.WithToken(*flags.botToken))
	if err != nil {
		return err
	}
	svc := messaging.NewTelegramService(client)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(); err != nil {
			slog.Error("Messaging service stop failed", "error", err)
		}
	}()

	resolver := dates.NewResolver(loc)
	b := bot.NewBot(st, session.NewStore(), svc, cipher, resolver,
		bot.WithReflectionTTL(*flags.reflectionTTL),
		bot.WithAdminTelegramID(*flags.adminID),
	)

	sched := scheduler.NewScheduler(loc)
	defer sched.Stop()
	runner := jobs.NewRunner(st, svc, cipher, loc)
	if err := runner.Register(ctx, sched); err != nil {
		return err
	}

	slog.Info("Intention bot running", "timezone", *flags.timezone, "admin_set", *flags.adminID != 0)
	b.Run(ctx)
	return nil
}
