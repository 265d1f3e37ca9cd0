package main

import (
	"os"
	"time"

	"snappy/client/internal/fakeserver"
	"snappy/client/internal/logging"
	"snappy/client/internal/models"

	"github.com/spf13/cobra"
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run an in-memory backend speaking the Snappy protocol",
	Args:  cobra.NoArgs,
	RunE:  runDevserver,
}

var (
	flagAddr          string
	flagAdminEmail    string
	flagAdminPassword string
	flagRateLimit     int
	flagTokenTTL      time.Duration
)

func init() {
	flags := devserverCmd.Flags()
	flags.StringVar(&flagAddr, "addr", ":5000", "listen address")
	flags.StringVar(&flagAdminEmail, "admin-email", "", "seed an admin account with this email")
	flags.StringVar(&flagAdminPassword, "admin-password", "", "password of the seeded admin")
	flags.IntVar(&flagRateLimit, "auth-rate-limit", 20, "login/register requests per minute and client, 0 disables")
	flags.DurationVar(&flagTokenTTL, "token-ttl", 24*time.Hour, "lifetime of issued tokens")
	rootCmd.AddCommand(devserverCmd)
}

func runDevserver(cmd *cobra.Command, args []string) error {
	level := flagLogLevel
	if level == "" {
		level = "info"
	}
	logger, err := logging.Console(level)
	if err != nil {
		return err
	}

	srv := fakeserver.New(fakeserver.Config{
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      flagTokenTTL,
		AuthRateLimit: flagRateLimit,
		LogRequests:   true,
	}, logger)

	if flagAdminEmail != "" {
		u, err := srv.SeedUser("admin", flagAdminEmail, flagAdminPassword, models.RoleAdmin)
		if err != nil {
			return err
		}
		logger.Info().Str("id", u.ID).Str("email", u.Email).Msg("[devserver] seeded admin")
	}

	ctx, stop := signalContext()
	defer stop()
	go func() {
		<-ctx.Done()
		if err := srv.Close(); err != nil {
			logger.Warn().Err(err).Msg("[devserver] shutdown")
		}
	}()

	logger.Info().Str("addr", flagAddr).Msg("[devserver] starting")
	return srv.Listen(flagAddr)
}
