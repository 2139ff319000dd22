package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/swasthatech/hospital-service/internal/config"
	"github.com/swasthatech/hospital-service/internal/db"
	"github.com/swasthatech/hospital-service/internal/doctor"
	"github.com/swasthatech/hospital-service/internal/logging"
	"github.com/swasthatech/hospital-service/internal/messaging"
	"github.com/swasthatech/hospital-service/internal/patient"
	"github.com/swasthatech/hospital-service/internal/retention"
	"github.com/swasthatech/hospital-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	log.Info().Dur("retention", cfg.RetentionPeriod).Msg("Retention cleanup job - starting")

	database, err := db.Connect(db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var provider *telemetry.Provider
	if cfg.OTELEnabled {
		provider, err = telemetry.InitProvider(ctx, telemetry.FromAppConfig(cfg))
		if err != nil {
			log.Warn().Err(err).Msg("telemetry disabled")
		}
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize metrics")
		metrics = nil
	}

	var publisher messaging.PublisherInterface
	if cfg.RabbitMQEnabled {
		if p, err := messaging.NewPublisher(cfg.RabbitMQURL); err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, purge events will not be published")
		} else {
			publisher = p
			defer p.Close()
		}
	}

	doctorRepo := doctor.NewRepository(database)
	patientRepo := patient.NewRepository(database)
	cleanup := retention.NewCleanupService(cfg.RetentionPeriod, metrics,
		retention.DoctorTarget(doctorRepo, doctor.NewService(doctorRepo, publisher, metrics)),
		retention.PatientTarget(patientRepo, patient.NewService(patientRepo, publisher, metrics)),
	)

	counts, err := cleanup.ExpiredCount(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to count expired records")
	}
	total := 0
	for recordType, n := range counts {
		log.Info().Str("record_type", recordType).Int("eligible", n).Msg("records eligible for permanent deletion")
		total += n
	}
	if total == 0 {
		log.Info().Msg("No cleanup needed. Exiting.")
		return
	}

	results, err := cleanup.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("cleanup failed")
		os.Exit(1)
	}

	failed := 0
	for _, r := range results {
		failed += r.Failed
	}
	if provider != nil {
		if err := provider.Shutdown(context.Background()); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}
	if failed > 0 {
		log.Error().Int("failed", failed).Msg("cleanup finished with failures")
		os.Exit(1)
	}
	log.Info().Msg("✓ Cleanup job finished")
}
