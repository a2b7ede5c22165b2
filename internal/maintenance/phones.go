package maintenance

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
	"github.com/BruksfildServices01/hospital-scheduler/internal/notify"
)

type PhoneStore interface {
	ListPatientPhones(ctx context.Context) ([]models.Patient, error)
	UpdatePatientPhone(ctx context.Context, patientID uint, phone string) error
}

type PhoneResult struct {
	Scanned   int
	Updated   int
	Unchanged int
	Invalid   int
	Failed    int
}

// NormalizePhones rewrites stored patient phones into international
// format. Numbers that cannot be normalized are left as they are.
func NormalizePhones(
	ctx context.Context,
	store PhoneStore,
	phones notify.PhoneNormalizer,
	logger *zap.Logger,
) (PhoneResult, error) {
	var res PhoneResult

	patients, err := store.ListPatientPhones(ctx)
	if err != nil {
		return res, fmt.Errorf("list patient phones: %w", err)
	}

	for _, p := range patients {
		res.Scanned++

		normalized, err := phones.Normalize(p.Phone)
		if err != nil {
			res.Invalid++
			logger.Warn("phone left untouched",
				zap.Uint("patient_id", p.ID),
				zap.String("phone", p.Phone),
			)
			continue
		}

		if normalized == p.Phone {
			res.Unchanged++
			continue
		}

		if err := store.UpdatePatientPhone(ctx, p.ID, normalized); err != nil {
			res.Failed++
			logger.Error("phone update failed",
				zap.Uint("patient_id", p.ID),
				zap.Error(err),
			)
			continue
		}

		res.Updated++
		logger.Info("phone normalized",
			zap.Uint("patient_id", p.ID),
			zap.String("from", p.Phone),
			zap.String("to", normalized),
		)
	}

	return res, nil
}
