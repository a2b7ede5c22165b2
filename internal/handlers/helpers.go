package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/hospital-scheduler/internal/httperr"
	"github.com/BruksfildServices01/hospital-scheduler/internal/middleware"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
)

// ProfileStore is what the account handlers need from persistence.
type ProfileStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	FindUserByName(ctx context.Context, userName string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID uint, hash string) error

	GetPatient(ctx context.Context, userID uint) (*models.Patient, error)
	SavePatient(ctx context.Context, p *models.Patient) error
	GetDoctor(ctx context.Context, userID uint) (*models.Doctor, error)
	SaveDoctor(ctx context.Context, d *models.Doctor) error

	ContactEmail(ctx context.Context, user *models.User) (string, error)
}

var errorStatus = map[string]int{
	"appointment_not_found":    http.StatusNotFound,
	"user_not_found":           http.StatusNotFound,
	"profile_not_found":        http.StatusNotFound,
	"invalid_state":            http.StatusConflict,
	"invalid_date_or_time":     http.StatusBadRequest,
	"invalid_patient":          http.StatusBadRequest,
	"invalid_period":           http.StatusBadRequest,
	"invalid_phone":            http.StatusBadRequest,
	"invalid_email":            http.StatusBadRequest,
	"invalid_or_expired_token": http.StatusBadRequest,
}

var errorMessage = map[string]string{
	"appointment_not_found":    "Appointment not found.",
	"user_not_found":           "User not found.",
	"profile_not_found":        "Profile not found.",
	"invalid_state":            "The appointment cannot change to that state.",
	"invalid_date_or_time":     "Invalid date or time.",
	"invalid_patient":          "Invalid patient.",
	"invalid_period":           "Invalid period.",
	"invalid_phone":            "Invalid phone number.",
	"invalid_email":            "Invalid email address.",
	"invalid_or_expired_token": "The reset link is invalid or has expired.",
}

// writeError maps business errors to their status; anything else is logged
// and answered with 500.
func writeError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	code := httperr.Code(err)
	if status, ok := errorStatus[code]; ok {
		httperr.Write(c, status, code, errorMessage[code])
		return
	}

	logger.Error(fallback,
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	httperr.Internal(c, fallback, "Internal error.")
}

func currentUser(c *gin.Context) (uint, string) {
	return c.GetUint(middleware.ContextUserID), c.GetString(middleware.ContextUserRole)
}
