package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"admin":         RoleAdmin,
		"Administrador": RoleAdmin,
		"paciente":      RolePatient,
		"patient":       RolePatient,
		"medico":        RoleDoctor,
		"Médico":        RoleDoctor,
		" doctor ":      RoleDoctor,
		"":              RoleGuest,
		"nurse":         RoleGuest,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseRole(in), in)
	}
}

func TestRoleClaimRoundTrip(t *testing.T) {
	for _, r := range []Role{RolePatient, RoleDoctor, RoleAdmin} {
		assert.Equal(t, r, ParseRole(r.Claim()))
	}
	assert.Empty(t, RoleGuest.Claim())
	assert.False(t, RoleGuest.Registrable())
}

func TestRoleJSON(t *testing.T) {
	out, err := json.Marshal(Identity{ID: "u1", Role: RoleDoctor})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"role":"doctor"`)

	var draft IdentityDraft
	require.NoError(t, json.Unmarshal([]byte(`{"name":"A","role":"paciente"}`), &draft))
	assert.Equal(t, RolePatient, draft.Role)
}

func TestParseAppointmentStatus(t *testing.T) {
	tests := map[string]AppointmentStatus{
		"pending":    AppointmentStatusPending,
		"Pendiente":  AppointmentStatusPending,
		"programada": AppointmentStatusPending,
		"Confirmada": AppointmentStatusConfirmed,
		"completada": AppointmentStatusConfirmed,
		"canceled":   AppointmentStatusCancelled,
		"Cancelada":  AppointmentStatusCancelled,
	}
	for in, want := range tests {
		got, err := ParseAppointmentStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseAppointmentStatus("archived")
	assert.Error(t, err)
	assert.False(t, AppointmentStatus("archived").Valid())
}

func TestAppointmentFilter(t *testing.T) {
	apt := &Appointment{
		DoctorID:  "d1",
		PatientID: "p1",
		Status:    AppointmentStatusPending,
		Reason:    "Annual Checkup",
		Title:     "Morning slot",
	}

	assert.True(t, AppointmentFilter{}.Matches(apt))
	assert.True(t, AppointmentFilter{DoctorID: "d1", Status: AppointmentStatusPending}.Matches(apt))
	assert.False(t, AppointmentFilter{DoctorID: "d2"}.Matches(apt))
	assert.False(t, AppointmentFilter{PatientID: "p2"}.Matches(apt))
	assert.False(t, AppointmentFilter{Status: AppointmentStatusCancelled}.Matches(apt))
	assert.True(t, AppointmentFilter{TextQuery: "checkup"}.Matches(apt))
	assert.True(t, AppointmentFilter{TextQuery: "MORNING"}.Matches(apt))
	assert.False(t, AppointmentFilter{TextQuery: "dental"}.Matches(apt))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	for _, in := range []string{
		"2025-01-01T10:00",
		"2025-01-01T10:00:00",
		"2025-01-01 10:00",
		"2025-01-01T10:00:00Z",
	} {
		got, err := ParseTimestamp(in, nil)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	offset, err := ParseTimestamp("2025-01-01T12:00:00+02:00", nil)
	require.NoError(t, err)
	assert.True(t, want.Equal(offset))

	_, err = ParseTimestamp("tomorrow", nil)
	assert.Error(t, err)
}

func TestSessionExpiry(t *testing.T) {
	now := time.Now()
	var nilSession *Session
	assert.Equal(t, RoleGuest, nilSession.Role())
	assert.True(t, nilSession.Expired(now))

	s := &Session{Identity: Identity{Role: RoleAdmin}}
	assert.False(t, s.Expired(now))

	s.ExpiresAt = now
	assert.True(t, s.Expired(now))
	assert.False(t, s.Expired(now.Add(-time.Second)))
}

func TestCloneIsIndependent(t *testing.T) {
	a := &Appointment{ID: "a1", Status: AppointmentStatusPending}
	c := a.Clone()
	c.Status = AppointmentStatusCancelled
	assert.Equal(t, AppointmentStatusPending, a.Status)

	var none *Appointment
	assert.Nil(t, none.Clone())
}
