package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/config"
	"github.com/swasthatech/hospital-service/internal/db"
	apphttp "github.com/swasthatech/hospital-service/internal/http"
	"github.com/swasthatech/hospital-service/internal/messaging"
	"github.com/swasthatech/hospital-service/internal/telemetry"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	return cmd
}

func runServer(migrate bool) error {
	cfg, conn, err := setup()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := context.Background()

	if migrate {
		n, err := db.NewMigrator(conn).Up(ctx)
		if err != nil {
			return err
		}
		log.Info().Int("applied", n).Msg("✓ Migrations applied")
	}

	var provider *telemetry.Provider
	if cfg.OTELEnabled {
		provider, err = telemetry.InitProvider(ctx, telemetry.FromAppConfig(cfg))
		if err != nil {
			log.Warn().Err(err).Msg("telemetry disabled")
		}
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize metrics, continuing without them")
		metrics = nil
	}

	issuer, verifier, closeKeys, err := buildAuth(cfg)
	if err != nil {
		return err
	}
	defer closeKeys()

	perms, err := auth.LoadPermissions(cfg.PermissionsFile)
	if err != nil {
		return fmt.Errorf("failed to load permissions from %s: %w", cfg.PermissionsFile, err)
	}
	log.Info().Int("roles", len(perms)).Msg("✓ Permissions loaded")

	var publisher messaging.PublisherInterface
	if cfg.RabbitMQEnabled {
		p, err := messaging.NewPublisher(cfg.RabbitMQURL)
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, events will not be published")
		} else {
			publisher = p
			defer p.Close()
		}
	}

	handler := apphttp.NewHandler(apphttp.Deps{
		DB:              conn,
		Issuer:          issuer,
		Verifier:        verifier,
		Permissions:     perms,
		Publisher:       publisher,
		Metrics:         metrics,
		ServiceName:     cfg.OTELServiceName,
		AllowedOrigins:  cfg.AllowedOrigins,
		OrgEmailDomain:  cfg.OrgEmailDomain,
		ConsultationFee: cfg.ConsultationFee,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("environment", cfg.Environment).Msg("✓ hospital-service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if provider != nil {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}
	log.Info().Msg("server stopped")
	return nil
}

// buildAuth creates the login token issuer and the verifier guarding the
// API. The verifier trusts the issuer's own key unless an external JWKS URL
// is configured.
func buildAuth(cfg *config.Config) (*auth.Issuer, *auth.Verifier, func(), error) {
	authCfg := auth.Config{
		Issuer:         cfg.AuthIssuer,
		Audience:       cfg.AuthAudience,
		TokenTTL:       cfg.AuthTokenTTL,
		SigningKeyFile: cfg.AuthSigningKeyFile,
		JWKSURL:        cfg.AuthJWKSURL,
	}

	key, err := auth.LoadSigningKey(cfg.AuthSigningKeyFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.AuthSigningKeyFile == "" {
		log.Warn().Msg("AUTH_SIGNING_KEY_FILE not set, using an ephemeral signing key; tokens will not survive a restart")
	}
	issuer := auth.NewIssuer(authCfg, key)

	if cfg.AuthJWKSURL == "" {
		return issuer, auth.NewVerifier(authCfg, issuer), func() {}, nil
	}
	jwks, err := auth.NewJWKS(cfg.AuthJWKSURL, 0)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load JWKS from %s: %w", cfg.AuthJWKSURL, err)
	}
	log.Info().Str("url", cfg.AuthJWKSURL).Msg("✓ Verifying tokens against external JWKS")
	return issuer, auth.NewVerifier(authCfg, jwks), jwks.Close, nil
}
