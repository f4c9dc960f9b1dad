package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/catalog"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/config"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/domain/dog"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/domain/reminder"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/domain/vaccination"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/platform/auth"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/platform/db"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/platform/metrics"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/platform/middleware"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/platform/notification"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/scheduling"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vaccine-server",
		Short: "Canine vaccination scheduling API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(remindCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the vaccine rule catalog",
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a rule file without touching the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				file = cfg.VaccineRulesPath
			}

			cat, err := catalog.Load(file)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d vaccine definition(s), all rules valid.\n", file, cat.Len())
			return nil
		},
	}
	validateCmd.Flags().String("file", "", "Path to the rule file (defaults to VACCINE_RULES_PATH)")
	cmd.AddCommand(validateCmd)

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Validate a rule file and sync it into the vaccines table",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.VaccineRulesPath
			}

			cat, err := catalog.Load(file)
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			gen := scheduling.NewGenerator(cat)
			svc := vaccination.NewService(
				dog.NewRepoPG(pool),
				vaccination.NewVaccineRepoPG(pool),
				vaccination.NewRecordRepoPG(pool),
				gen, cfg.UpcomingWindowDays, nil, newLogger())
			if err := svc.SyncVaccines(ctx, cat); err != nil {
				return err
			}
			fmt.Printf("Synced %d vaccine(s) from %s.\n", cat.Len(), file)
			return nil
		},
	}
	loadCmd.Flags().String("file", "", "Path to the rule file (defaults to VACCINE_RULES_PATH)")
	cmd.AddCommand(loadCmd)

	return cmd
}

func remindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Reminder batch jobs",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Send due-vaccination reminder emails for every enabled owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			asOfFlag, _ := cmd.Flags().GetString("as-of")

			logger := newLogger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			var asOf time.Time
			if asOfFlag != "" {
				asOf, err = time.Parse(scheduling.DateLayout, asOfFlag)
				if err != nil {
					return fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
				}
			}

			cat, err := catalog.Load(cfg.VaccineRulesPath)
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			var sender notification.EmailSender
			if cfg.ResendAPIKey != "" {
				sender = notification.NewResendSender(cfg.ResendAPIKey, cfg.ResendFromEmail)
			} else {
				sender = &notification.NoopSender{Logger: logger}
			}

			runner := reminder.NewRunner(
				dog.NewRepoPG(pool),
				vaccination.NewRecordRepoPG(pool),
				reminder.NewPreferenceRepoPG(pool),
				reminder.NewLogRepoPG(pool),
				scheduling.NewGenerator(cat),
				sender,
				notification.NewTemplateEngine(),
				metrics.New(),
				logger)

			stats, err := runner.Run(ctx, asOf, dryRun)
			if err != nil {
				return err
			}
			fmt.Printf("Subjects: %d  Sent: %d  Suppressed: %d  Failures: %d\n",
				stats.Subjects, stats.Sent, stats.Suppressed, stats.Failures)
			return nil
		},
	}
	runCmd.Flags().Bool("dry-run", false, "Log would-send decisions without dispatching")
	runCmd.Flags().String("as-of", "", "Compute schedules as of this date (YYYY-MM-DD, defaults to today)")
	cmd.AddCommand(runCmd)

	return cmd
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	cat, err := catalog.Load(cfg.VaccineRulesPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.VaccineRulesPath).Msg("failed to load vaccine rules")
	}
	logger.Info().Int("vaccines", cat.Len()).Msg("vaccine rule catalog loaded")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	m := metrics.New()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.SanitizeWithLogger(logger))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(m.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Public endpoints
	e.GET("/health", db.HealthHandler(pool))
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	// Authenticated API
	apiV1 := e.Group("/api/v1")
	switch cfg.ResolvedAuthMode() {
	case "development":
		apiV1.Use(auth.DevAuthMiddleware())
	case "local":
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	default:
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// -- Domain wiring --

	gen := scheduling.NewGenerator(cat)

	dogRepo := dog.NewRepoPG(pool)
	dogSvc := dog.NewService(dogRepo)
	dog.NewHandler(dogSvc).RegisterRoutes(apiV1)

	recordRepo := vaccination.NewRecordRepoPG(pool)
	vacSvc := vaccination.NewService(dogRepo, vaccination.NewVaccineRepoPG(pool), recordRepo,
		gen, cfg.UpcomingWindowDays, m, logger)
	vaccination.NewHandler(vacSvc).RegisterRoutes(apiV1)

	prefRepo := reminder.NewPreferenceRepoPG(pool)
	reminder.NewHandler(reminder.NewService(prefRepo, cfg.ReminderLeadDays, cfg.ReminderResendHours)).RegisterRoutes(apiV1)

	// Server lifecycle
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("auth_mode", cfg.ResolvedAuthMode()).Msg("server starting")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
