package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"snappy/client/internal/admin"
	"snappy/client/internal/api"
	"snappy/client/internal/auth"
	"snappy/client/internal/chat"
	"snappy/client/internal/config"
	"snappy/client/internal/logging"
	"snappy/client/internal/realtime"
	"snappy/client/internal/session"
	"snappy/client/internal/ui"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "snappy",
	Short:         "Terminal client for the Snappy chat service",
	RunE:          runTUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagAPIHost    string
	flagSocketHost string
	flagDataDir    string
	flagLogLevel   string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagAPIHost, "api-host", "", "backend base URL (env SNAPPY_API_HOST)")
	flags.StringVar(&flagSocketHost, "socket-host", "", "realtime host, defaults to the API host (env SNAPPY_SOCKET_HOST)")
	flags.StringVar(&flagDataDir, "data-dir", "", "directory for the session database and log file (env SNAPPY_DATA_DIR)")
	flags.StringVar(&flagLogLevel, "log-level", "", "zerolog level (env SNAPPY_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("snappy")
	}
}

// loadConfig reads the environment and lets flags override it
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagAPIHost != "" {
		cfg.APIHost = flagAPIHost
		if flagSocketHost == "" && os.Getenv("SNAPPY_SOCKET_HOST") == "" {
			cfg.SocketHost = flagAPIHost
		}
	}
	if flagSocketHost != "" {
		cfg.SocketHost = flagSocketHost
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, nil
}

// env is what every command that talks to the backend needs
type env struct {
	cfg    config.Config
	log    zerolog.Logger
	store  *session.Store
	client *api.Client
	auth   *auth.Service
	admin  *admin.Service
}

func openEnv(cfg config.Config, logger zerolog.Logger) (*env, error) {
	store, err := session.Open(cfg.DataDir, cfg.SessionKey, logger)
	if err != nil {
		return nil, err
	}
	if _, err := store.Load(); err != nil && !errors.Is(err, session.ErrNoSession) {
		store.Close()
		return nil, err
	}
	client := api.New(cfg.APIHost, cfg.HTTPTimeout, logger)
	return &env{
		cfg:    cfg,
		log:    logger,
		store:  store,
		client: client,
		auth:   auth.New(client, store, logger),
		admin:  admin.New(client, store, logger),
	}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// cliEnv opens the environment for one-shot commands, logging to stderr
func cliEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.Console(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return openEnv(cfg, logger)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, logFile, err := logging.File(cfg.DataDir, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logFile.Close()

	socketURL, err := cfg.SocketURL()
	if err != nil {
		return err
	}

	e, err := openEnv(cfg, logger)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer e.Close()

	ctx, stop := signalContext()
	defer stop()

	logger.Info().Str("api", cfg.APIHost).Str("socket", socketURL).Msg("[snappy] starting")
	app := ui.NewApp(ui.Deps{
		Store:         e.store,
		API:           e.client,
		Auth:          e.auth,
		Admin:         e.admin,
		Dial:          chat.RealtimeDialer(realtime.Config{URL: socketURL}, logger),
		TypingTimeout: cfg.TypingTimeout,
		Logger:        logger,
	})
	return app.Run(ctx)
}
