package appointment

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/hospital-scheduler/internal/domain/appointment"
)

type ReconcileResult struct {
	Scanned   int `json:"scanned"`
	Scheduled int `json:"scheduled"`
	Skipped   int `json:"skipped"`
}

// ReconcileReminders rebuilds the in-memory jobs from storage after a
// restart. One bad appointment never stops the scan, and each row is read
// again before arming so lifecycle requests running meanwhile are honored.
type ReconcileReminders struct {
	repo      domain.Repository
	reminders *ReminderCoordinator
	logger    *zap.Logger
}

func NewReconcileReminders(
	repo domain.Repository,
	reminders *ReminderCoordinator,
	logger *zap.Logger,
) *ReconcileReminders {
	return &ReconcileReminders{
		repo:      repo,
		reminders: reminders,
		logger:    logger,
	}
}

func (uc *ReconcileReminders) Execute(ctx context.Context) (ReconcileResult, error) {
	ctx, span := tracer.Start(ctx, "appointment.reconcile")
	defer span.End()

	var res ReconcileResult

	list, err := uc.repo.ListFutureAppointments(ctx, uc.reminders.Now())
	if err != nil {
		return res, fmt.Errorf("list future appointments: %w", err)
	}

	for i := range list {
		res.Scanned++

		if _, err := uc.reminders.Resync(ctx, list[i].ID, list[i].PatientUserID); err != nil {
			res.Skipped++
			continue
		}
		res.Scheduled++
	}

	span.SetAttributes(
		attribute.Int("reconcile.scanned", res.Scanned),
		attribute.Int("reconcile.scheduled", res.Scheduled),
	)

	uc.logger.Info("reminders reconciled",
		zap.Int("scanned", res.Scanned),
		zap.Int("scheduled", res.Scheduled),
		zap.Int("skipped", res.Skipped),
	)

	return res, nil
}
