package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/hospital-scheduler/internal/httperr"
	"github.com/BruksfildServices01/hospital-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
	uc "github.com/BruksfildServices01/hospital-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentUseCases struct {
	Book       *uc.BookAppointment
	Reschedule *uc.RescheduleAppointment
	Cancel     *uc.CancelAppointment
	Confirm    *uc.ConfirmAppointment
	Complete   *uc.CompleteAppointment
	Delete     *uc.DeleteAppointment
	List       *uc.ListAppointments
	Reconcile  *uc.ReconcileReminders
}

type AppointmentHandler struct {
	uc       AppointmentUseCases
	profiles ProfileStore
	logger   *zap.Logger
}

func NewAppointmentHandler(
	useCases AppointmentUseCases,
	profiles ProfileStore,
	logger *zap.Logger,
) *AppointmentHandler {
	return &AppointmentHandler{
		uc:       useCases,
		profiles: profiles,
		logger:   logger,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	Doctor         string `json:"doctor" binding:"required"`
	Specialization string `json:"specialization"`
	Date           string `json:"date" binding:"required"`
	Time           string `json:"time" binding:"required"`
	Notes          string `json:"notes" binding:"max=255"`
}

type RescheduleAppointmentRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// ======================================================
// ACCESS
// ======================================================

type access struct {
	owner  bool
	doctor bool
}

// authorize loads the appointment and checks the caller against it. Admins
// always pass; the owning patient and the assigned doctor pass when the
// operation allows them.
func (h *AppointmentHandler) authorize(c *gin.Context, allow access) (*models.Appointment, bool) {
	userID, role := currentUser(c)

	ap, err := h.uc.List.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err, "failed_to_load_appointment")
		return nil, false
	}

	switch role {
	case models.RoleAdmin:
		return ap, true
	case models.RolePatient:
		if allow.owner && ap.PatientUserID == userID {
			return ap, true
		}
	case models.RoleDoctor:
		if allow.doctor {
			name, ok := h.doctorName(c)
			if !ok {
				return nil, false
			}
			if name == ap.Doctor {
				return ap, true
			}
		}
	}

	httperr.Forbidden(c, "forbidden", "You cannot change this appointment.")
	return nil, false
}

func (h *AppointmentHandler) doctorName(c *gin.Context) (string, bool) {
	userID, _ := currentUser(c)

	doc, err := h.profiles.GetDoctor(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err, "failed_to_load_profile")
		return "", false
	}
	return doc.Name, true
}

// ======================================================
// PATIENT
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	userID, _ := currentUser(c)

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	ap, err := h.uc.Book.Execute(c.Request.Context(), uc.BookAppointmentInput{
		PatientUserID:  userID,
		Doctor:         req.Doctor,
		Specialization: req.Specialization,
		Date:           req.Date,
		Time:           req.Time,
		Notes:          req.Notes,
	})
	if err != nil {
		writeError(c, h.logger, err, "failed_to_create_appointment")
		return
	}

	httpresp.Created(c, h.uc.List.Describe(*ap))
}

func (h *AppointmentHandler) ListMine(c *gin.Context) {
	userID, _ := currentUser(c)

	list, err := h.uc.List.ForPatient(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err, "failed_to_list_appointments")
		return
	}

	httpresp.List(c, list)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	ap, ok := h.authorize(c, access{owner: true, doctor: true})
	if !ok {
		return
	}
	httpresp.OK(c, h.uc.List.Describe(*ap))
}

// ======================================================
// LIFECYCLE
// ======================================================

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	ap, ok := h.authorize(c, access{owner: true})
	if !ok {
		return
	}

	var req RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	userID, _ := currentUser(c)
	moved, err := h.uc.Reschedule.Execute(c.Request.Context(), ap.ID, req.Date, req.Time, userID)
	if err != nil {
		writeError(c, h.logger, err, "failed_to_reschedule_appointment")
		return
	}

	httpresp.OK(c, h.uc.List.Describe(*moved))
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	ap, ok := h.authorize(c, access{owner: true, doctor: true})
	if !ok {
		return
	}

	userID, _ := currentUser(c)
	ap, err := h.uc.Cancel.Execute(c.Request.Context(), ap.ID, userID)
	if err != nil {
		writeError(c, h.logger, err, "failed_to_cancel_appointment")
		return
	}

	httpresp.OK(c, h.uc.List.Describe(*ap))
}

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	ap, ok := h.authorize(c, access{doctor: true})
	if !ok {
		return
	}

	userID, _ := currentUser(c)
	ap, err := h.uc.Confirm.Execute(c.Request.Context(), ap.ID, userID)
	if err != nil {
		writeError(c, h.logger, err, "failed_to_confirm_appointment")
		return
	}

	httpresp.OK(c, h.uc.List.Describe(*ap))
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	ap, ok := h.authorize(c, access{doctor: true})
	if !ok {
		return
	}

	userID, _ := currentUser(c)
	ap, err := h.uc.Complete.Execute(c.Request.Context(), ap.ID, userID)
	if err != nil {
		writeError(c, h.logger, err, "failed_to_complete_appointment")
		return
	}

	httpresp.OK(c, h.uc.List.Describe(*ap))
}

func (h *AppointmentHandler) Delete(c *gin.Context) {
	ap, ok := h.authorize(c, access{owner: true})
	if !ok {
		return
	}

	userID, _ := currentUser(c)
	if err := h.uc.Delete.Execute(c.Request.Context(), ap.ID, userID); err != nil {
		writeError(c, h.logger, err, "failed_to_delete_appointment")
		return
	}

	c.Status(http.StatusNoContent)
}

// ======================================================
// DOCTOR CALENDAR
// ======================================================

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "missing_date", "Query parameter date is required.")
		return
	}

	name, ok := h.doctorName(c)
	if !ok {
		return
	}

	list, err := h.uc.List.ForDoctorByDate(c.Request.Context(), name, date)
	if err != nil {
		writeError(c, h.logger, err, "failed_to_list_appointments")
		return
	}

	httpresp.List(c, list)
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	year, errY := strconv.Atoi(c.Query("year"))
	month, errM := strconv.Atoi(c.Query("month"))
	if errY != nil || errM != nil {
		httperr.BadRequest(c, "missing_year_or_month", "Query parameters year and month are required.")
		return
	}

	name, ok := h.doctorName(c)
	if !ok {
		return
	}

	list, err := h.uc.List.ForDoctorByMonth(c.Request.Context(), name, year, month)
	if err != nil {
		writeError(c, h.logger, err, "failed_to_list_appointments")
		return
	}

	httpresp.List(c, list)
}

// ======================================================
// ADMIN
// ======================================================

func (h *AppointmentHandler) Reminders(c *gin.Context) {
	httpresp.List(c, h.uc.List.Reminders())
}

func (h *AppointmentHandler) ReconcileReminders(c *gin.Context) {
	res, err := h.uc.Reconcile.Execute(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err, "failed_to_reconcile_reminders")
		return
	}
	httpresp.OK(c, res)
}
