package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/BruksfildServices01/hospital-scheduler/internal/httperr"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
	"github.com/BruksfildServices01/hospital-scheduler/internal/notify"
	"github.com/BruksfildServices01/hospital-scheduler/internal/validators"
)

var errInvalidEmail = httperr.ErrBusiness("invalid_email")

// ProfileRequest carries the fields of both profile kinds; doctor-only
// fields are ignored for patients.
type ProfileRequest struct {
	Name    string `json:"name"`
	DOB     string `json:"dob"`
	Gender  string `json:"gender"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`

	LicenseNumber  string `json:"license_number"`
	Specialization string `json:"specialization"`
	Experience     int    `json:"experience"`
}

func (p ProfileRequest) normalize(phones notify.PhoneNormalizer) (ProfileRequest, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)

	if p.Phone != "" {
		normalized, err := phones.Normalize(p.Phone)
		if err != nil {
			return p, err
		}
		p.Phone = normalized
	}

	if p.Email != "" && !validators.IsEmailSyntaxValid(p.Email) {
		return p, errInvalidEmail
	}

	return p, nil
}

func (p ProfileRequest) dob() *time.Time {
	if p.DOB == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", p.DOB)
	if err != nil {
		return nil
	}
	return &t
}

func saveProfile(ctx context.Context, store ProfileStore, user *models.User, p ProfileRequest) error {
	switch user.Role {
	case models.RolePatient:
		return store.SavePatient(ctx, &models.Patient{
			UserID:  user.ID,
			Name:    p.Name,
			DOB:     p.dob(),
			Gender:  p.Gender,
			Phone:   p.Phone,
			Email:   p.Email,
			Address: p.Address,
		})
	case models.RoleDoctor:
		return store.SaveDoctor(ctx, &models.Doctor{
			UserID:         user.ID,
			Name:           p.Name,
			DOB:            p.dob(),
			Gender:         p.Gender,
			Phone:          p.Phone,
			Email:          p.Email,
			LicenseNumber:  p.LicenseNumber,
			Specialization: p.Specialization,
			Experience:     p.Experience,
		})
	}
	return nil
}

type MeHandler struct {
	profiles ProfileStore
	phones   notify.PhoneNormalizer
	logger   *zap.Logger
}

func NewMeHandler(profiles ProfileStore, phones notify.PhoneNormalizer, logger *zap.Logger) *MeHandler {
	return &MeHandler{profiles: profiles, phones: phones, logger: logger}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	userID, _ := currentUser(c)

	user, err := h.profiles.GetUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err, "failed_to_load_user")
		return
	}

	resp := gin.H{"user": user}

	var profile any
	switch user.Role {
	case models.RolePatient:
		profile, err = h.profiles.GetPatient(c.Request.Context(), user.ID)
	case models.RoleDoctor:
		profile, err = h.profiles.GetDoctor(c.Request.Context(), user.ID)
	}
	if err != nil && !httperr.IsBusiness(err, "profile_not_found") {
		writeError(c, h.logger, err, "failed_to_load_profile")
		return
	}
	if err == nil && profile != nil {
		resp["profile"] = profile
	}

	c.JSON(http.StatusOK, resp)
}

func (h *MeHandler) UpdateProfile(c *gin.Context) {
	userID, role := currentUser(c)
	if role == models.RoleAdmin {
		httperr.BadRequest(c, "no_profile", "Admins have no profile.")
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	p, err := req.normalize(h.phones)
	if err != nil {
		writeError(c, h.logger, err, "failed_to_update_profile")
		return
	}
	if p.Name == "" {
		httperr.BadRequest(c, "invalid_request", "Profile name is required.")
		return
	}

	user := &models.User{ID: userID, Role: role}
	if err := saveProfile(c.Request.Context(), h.profiles, user, p); err != nil {
		writeError(c, h.logger, err, "failed_to_update_profile")
		return
	}

	h.GetMe(c)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// ChangePassword replaces the caller's password after checking the current
// one.
func (h *MeHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	userID, _ := currentUser(c)

	user, err := h.profiles.GetUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err, "failed_to_load_user")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		httperr.BadRequest(c, "invalid_current_password", "Current password is incorrect.")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Internal error.")
		return
	}

	if err := h.profiles.UpdatePassword(c.Request.Context(), user.ID, string(hashed)); err != nil {
		writeError(c, h.logger, err, "failed_to_update_password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated."})
}
