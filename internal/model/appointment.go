package model

import (
	"fmt"
	"strings"
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

var AppointmentStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
	AppointmentStatusCancelled,
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled:
		return true
	}
	return false
}

// ParseAppointmentStatus also accepts the spellings used by the dashboards
// ("Pendiente", "Confirmada", "programada", ...).
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "pendiente", "programada", "scheduled":
		return AppointmentStatusPending, nil
	case "confirmed", "confirmada", "completada", "completed":
		return AppointmentStatusConfirmed, nil
	case "cancelled", "canceled", "cancelada":
		return AppointmentStatusCancelled, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

type Appointment struct {
	ID        string            `json:"id"`
	DoctorID  string            `json:"doctor_id"`
	PatientID string            `json:"patient_id"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Reason    string            `json:"reason"`
	Title     string            `json:"title,omitempty"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Clone returns a copy safe to hand out of a store.
func (a *Appointment) Clone() *Appointment {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

type AppointmentDraft struct {
	PatientID string    `json:"patient_id" validate:"required"`
	DoctorID  string    `json:"doctor_id" validate:"required"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time" validate:"gtfield=StartTime"`
	Reason    string    `json:"reason" validate:"max=1000"`
	Title     string    `json:"title" validate:"max=200"`
}

// AppointmentFilter narrows a listing. Zero fields match everything.
type AppointmentFilter struct {
	DoctorID  string            `json:"doctor_id" form:"doctor_id"`
	PatientID string            `json:"patient_id" form:"patient_id"`
	Status    AppointmentStatus `json:"status" form:"status"`
	TextQuery string            `json:"q" form:"q"`
}

// Matches applies the filter to one appointment.
func (f AppointmentFilter) Matches(a *Appointment) bool {
	if f.DoctorID != "" && a.DoctorID != f.DoctorID {
		return false
	}
	if f.PatientID != "" && a.PatientID != f.PatientID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.TextQuery)); q != "" {
		if !strings.Contains(strings.ToLower(a.Reason), q) &&
			!strings.Contains(strings.ToLower(a.Title), q) {
			return false
		}
	}
	return true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTimestamp accepts the formats calendar widgets send. Values without a zone
// are read in loc (UTC when nil).
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
