package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/doctor"
	"github.com/swasthatech/hospital-service/internal/patient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/swasthatech/hospital-service/retention")

// systemPrincipal is the actor recorded on purges made by the cleanup job.
var systemPrincipal = &auth.Principal{Email: "retention-cleanup", Roles: []string{auth.RoleAdmin}}

// Target is one kind of soft-deletable record the job can purge.
type Target struct {
	RecordType string
	// Expired lists ids soft-deleted before the cutoff, oldest first.
	Expired func(ctx context.Context, cutoff time.Time) ([]int64, error)
	// Purge permanently deletes one record and reports how many
	// appointments went with it.
	Purge func(ctx context.Context, id int64) (int64, error)
}

// DoctorTarget purges doctors through the doctor service so the usual
// events and metrics are emitted.
func DoctorTarget(repo doctor.RepositoryInterface, svc doctor.ServiceInterface) Target {
	return Target{
		RecordType: "doctor",
		Expired:    repo.ListDeletedBefore,
		Purge: func(ctx context.Context, id int64) (int64, error) {
			res, err := svc.PermanentDelete(ctx, systemPrincipal, id)
			if err != nil {
				return 0, err
			}
			return res.Appointments, nil
		},
	}
}

func PatientTarget(repo patient.RepositoryInterface, svc patient.ServiceInterface) Target {
	return Target{
		RecordType: "patient",
		Expired:    repo.ListDeletedBefore,
		Purge: func(ctx context.Context, id int64) (int64, error) {
			res, err := svc.PermanentDelete(ctx, systemPrincipal, id)
			if err != nil {
				return 0, err
			}
			return res.Appointments, nil
		},
	}
}

// PurgeRecorder is satisfied by *telemetry.Metrics.
type PurgeRecorder interface {
	RecordRetentionPurge(ctx context.Context, recordType string, count int64)
}

// Result summarises one target's cleanup run.
type Result struct {
	RecordType   string
	Found        int
	Deleted      int
	Failed       int
	Appointments int64
}

// CleanupService permanently deletes records that stayed soft-deleted longer
// than the retention period.
type CleanupService struct {
	targets   []Target
	retention time.Duration
	metrics   PurgeRecorder
	now       func() time.Time
}

func NewCleanupService(retention time.Duration, metrics PurgeRecorder, targets ...Target) *CleanupService {
	return &CleanupService{targets: targets, retention: retention, metrics: metrics, now: time.Now}
}

// Cutoff is the soft-delete timestamp before which records are purged.
func (s *CleanupService) Cutoff() time.Time {
	return s.now().Add(-s.retention)
}

// ExpiredCount returns how many records of each type are eligible.
func (s *CleanupService) ExpiredCount(ctx context.Context) (map[string]int, error) {
	cutoff := s.Cutoff()
	counts := make(map[string]int, len(s.targets))
	for _, t := range s.targets {
		ids, err := t.Expired(ctx, cutoff)
		if err != nil {
			return nil, fmt.Errorf("failed to list expired %s records: %w", t.RecordType, err)
		}
		counts[t.RecordType] = len(ids)
	}
	return counts, nil
}

// Run purges every expired record. A failure on one record is logged and
// the run moves on; listing failures abort the run.
func (s *CleanupService) Run(ctx context.Context) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "retention.Run")
	defer span.End()

	cutoff := s.Cutoff()
	log.Info().Time("cutoff", cutoff).Dur("retention", s.retention).Msg("starting retention cleanup")

	results := make([]Result, 0, len(s.targets))
	for _, t := range s.targets {
		res, err := s.runTarget(ctx, t, cutoff)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return results, err
		}
		span.SetAttributes(attribute.Int(t.RecordType+".purged", res.Deleted))
		results = append(results, res)
	}

	span.SetStatus(codes.Ok, "retention cleanup finished")
	return results, nil
}

func (s *CleanupService) runTarget(ctx context.Context, t Target, cutoff time.Time) (Result, error) {
	res := Result{RecordType: t.RecordType}

	ids, err := t.Expired(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("failed to list expired %s records: %w", t.RecordType, err)
	}
	res.Found = len(ids)
	if len(ids) == 0 {
		log.Info().Str("record_type", t.RecordType).Msg("no expired records")
		return res, nil
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		appts, err := t.Purge(ctx, id)
		if err != nil {
			res.Failed++
			log.Error().Err(err).Str("record_type", t.RecordType).Int64("id", id).Msg("failed to purge expired record")
			continue
		}
		res.Deleted++
		res.Appointments += appts
	}

	if s.metrics != nil {
		s.metrics.RecordRetentionPurge(ctx, t.RecordType, int64(res.Deleted))
	}
	log.Info().
		Str("record_type", t.RecordType).
		Int("deleted", res.Deleted).
		Int("found", res.Found).
		Int("failed", res.Failed).
		Int64("appointments_deleted", res.Appointments).
		Msg("retention cleanup finished for record type")
	return res, nil
}
