package appointment

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/middleware"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/service/appointment"
	"github.com/jwalitptl/clinic-portal/internal/service/notification"
	apperrors "github.com/jwalitptl/clinic-portal/pkg/errors"
)

type Handler struct {
	service  *appointment.Service
	location *time.Location
}

// NewHandler reads zone-less timestamps in loc.
func NewHandler(service *appointment.Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: service, location: loc}
}

type CreateRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Reason    string `json:"reason"`
	Title     string `json:"title"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// RegisterPatientRoutes mounts the patient dashboard API on a patient-gated group.
func (h *Handler) RegisterPatientRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.List)
		appointments.POST("", h.Create)
		appointments.POST("/:id/cancel", h.Cancel)
	}
}

// RegisterDoctorRoutes mounts the doctor dashboard API on a doctor-gated group.
func (h *Handler) RegisterDoctorRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.List)
		appointments.PUT("/:id/status", h.UpdateStatus)
		appointments.POST("/:id/cancel", h.Cancel)
	}
}

// RegisterAdminRoutes mounts the admin dashboard API on an admin-gated group.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.List)
		appointments.POST("", h.Create)
		appointments.GET("/:id", h.Get)
		appointments.PUT("/:id/status", h.UpdateStatus)
		appointments.POST("/:id/cancel", h.Cancel)
		appointments.DELETE("/:id", h.Delete)
	}
}

// List returns the appointments the caller's role may see, narrowed by the
// doctor_id, patient_id, status and q query parameters.
func (h *Handler) List(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	filter := model.AppointmentFilter{
		DoctorID:  c.Query("doctor_id"),
		PatientID: c.Query("patient_id"),
		TextQuery: c.Query("q"),
	}
	if s := c.Query("status"); s != "" {
		status, err := model.ParseAppointmentStatus(s)
		if err != nil {
			handler.BadRequest(c, err)
			return
		}
		filter.Status = status
	}

	appointments, err := h.service.ListFor(c.Request.Context(), identity, filter)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) Get(c *gin.Context) {
	apt, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) Create(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, handler.BindError(err, "doctor, start and end time are required"))
		return
	}

	draft, err := h.draft(req)
	if err != nil {
		h.reject(c, err)
		return
	}
	if draft.PatientID == "" && identity.Role == model.RolePatient {
		draft.PatientID = identity.ID
	}

	if !appointment.CanCreate(identity, draft) {
		h.reject(c, apperrors.Forbidden("patients can only book their own appointments"))
		return
	}

	apt, err := h.service.Create(c.Request.Context(), draft)
	if err != nil {
		h.reject(c, err)
		return
	}

	handler.Notify(c, notification.Success("Appointment created"))
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(apt))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, handler.BindError(err, "status is required"))
		return
	}

	status, err := model.ParseAppointmentStatus(req.Status)
	if err != nil {
		h.reject(c, apperrors.Validation(err.Error(), nil))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.reject(c, err)
		return
	}
	if !appointment.CanUpdateStatus(identity, apt) {
		h.reject(c, apperrors.Forbidden("only the assigned doctor or an admin can change this appointment"))
		return
	}

	apt, err = h.service.UpdateStatus(c.Request.Context(), apt.ID, status)
	if err != nil {
		h.reject(c, err)
		return
	}

	handler.Notify(c, notification.Success(fmt.Sprintf("Appointment %s", apt.Status)))
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) Cancel(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	apt, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.reject(c, err)
		return
	}
	if !appointment.CanCancel(identity, apt) {
		h.reject(c, apperrors.Forbidden("you cannot cancel this appointment"))
		return
	}

	apt, err = h.service.Cancel(c.Request.Context(), apt.ID)
	if err != nil {
		h.reject(c, err)
		return
	}

	handler.Notify(c, notification.Info("Appointment cancelled"))
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) Delete(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	if !appointment.CanDelete(identity) {
		h.reject(c, apperrors.Forbidden("only admins can delete appointments"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.reject(c, err)
		return
	}

	handler.Notify(c, notification.Info("Appointment deleted"))
	c.Status(http.StatusNoContent)
}

// reject notifies the user and renders err.
func (h *Handler) reject(c *gin.Context, err error) {
	handler.NotifyError(c, err)
	handler.Fail(c, err)
}

func (h *Handler) draft(req CreateRequest) (model.AppointmentDraft, error) {
	start, err := model.ParseTimestamp(req.StartTime, h.location)
	if err != nil {
		return model.AppointmentDraft{}, apperrors.Validation("invalid start time", err)
	}
	end, err := model.ParseTimestamp(req.EndTime, h.location)
	if err != nil {
		return model.AppointmentDraft{}, apperrors.Validation("invalid end time", err)
	}
	return model.AppointmentDraft{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		StartTime: start,
		EndTime:   end,
		Reason:    req.Reason,
		Title:     req.Title,
	}, nil
}
