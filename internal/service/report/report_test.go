package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository/memory"
	apperrors "github.com/jwalitptl/clinic-portal/pkg/errors"
)

func seedLocal(t *testing.T) *Local {
	t.Helper()
	ctx := context.Background()

	identities := memory.NewIdentityRepository()
	require.NoError(t, identities.Create(ctx, &model.Credential{Identity: model.Identity{ID: "d1", Name: "Ana Ruiz", Email: "ana@x.com", Role: model.RoleDoctor}}))

	appointments := memory.NewAppointmentRepository()
	add := func(id, doctor string, month time.Month, status model.AppointmentStatus) {
		start := time.Date(2025, month, 3, 9, 0, 0, 0, time.UTC)
		require.NoError(t, appointments.Create(ctx, &model.Appointment{
			ID: id, DoctorID: doctor, PatientID: "p1",
			StartTime: start, EndTime: start.Add(30 * time.Minute), Status: status,
		}))
	}
	add("a1", "d1", time.January, model.AppointmentStatusPending)
	add("a2", "d1", time.January, model.AppointmentStatusConfirmed)
	add("a3", "d1", time.March, model.AppointmentStatusCancelled)
	add("a4", "d2", time.December, model.AppointmentStatusConfirmed)

	return NewLocal(appointments, identities)
}

func TestLocalFetch(t *testing.T) {
	r, err := seedLocal(t).Fetch(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, model.Statistics{TotalCitas: 4, Completadas: 2, Pendientes: 1, Canceladas: 1}, r.Statistics)
	assert.Equal(t, model.StatusBreakdown{Pendientes: 1, Completadas: 2, Canceladas: 1}, r.ByStatus)
	assert.Equal(t, model.MonthlyCounts{2, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 1}, r.PerMonth)
	assert.Equal(t, []model.DoctorCount{
		{Medico: "Ana Ruiz", Cantidad: 3},
		{Medico: "d2", Cantidad: 1},
	}, r.PerDoctor)
}

func TestLocalIndividualAggregatesMatchFetch(t *testing.T) {
	ctx := context.Background()
	local := seedLocal(t)
	full, err := local.Fetch(ctx, "")
	require.NoError(t, err)

	stats, err := local.Statistics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, full.Statistics, stats)

	months, err := local.MonthlyCounts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, full.PerMonth, months)

	perDoctor, err := local.ByDoctor(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, full.PerDoctor, perDoctor)

	status, err := local.ByStatus(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, full.ByStatus, status)
}

type reporterMock struct {
	mock.Mock
}

func (m *reporterMock) Statistics(ctx context.Context, token string) (model.Statistics, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.Statistics), args.Error(1)
}

func (m *reporterMock) MonthlyCounts(ctx context.Context, token string) (model.MonthlyCounts, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.MonthlyCounts), args.Error(1)
}

func (m *reporterMock) ByDoctor(ctx context.Context, token string) ([]model.DoctorCount, error) {
	args := m.Called(ctx, token)
	out, _ := args.Get(0).([]model.DoctorCount)
	return out, args.Error(1)
}

func (m *reporterMock) ByStatus(ctx context.Context, token string) (model.StatusBreakdown, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.StatusBreakdown), args.Error(1)
}

func (m *reporterMock) Fetch(ctx context.Context, token string) (*model.Report, error) {
	args := m.Called(ctx, token)
	out, _ := args.Get(0).(*model.Report)
	return out, args.Error(1)
}

func TestCachedServesRepeatCallsFromCache(t *testing.T) {
	ctx := context.Background()
	next := new(reporterMock)
	next.On("Statistics", mock.Anything, "tok").Return(model.Statistics{TotalCitas: 3}, nil).Once()
	next.On("ByDoctor", mock.Anything, "tok").Return([]model.DoctorCount{{Medico: "Ana", Cantidad: 3}}, nil).Once()

	cached := NewCached(next, time.Minute)
	for i := 0; i < 3; i++ {
		stats, err := cached.Statistics(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalCitas)
	}

	first, err := cached.ByDoctor(ctx, "tok")
	require.NoError(t, err)
	first[0].Cantidad = 99
	second, err := cached.ByDoctor(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 3, second[0].Cantidad, "callers must not mutate the cached slice")

	next.AssertExpectations(t)
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	next := new(reporterMock)
	next.On("Fetch", mock.Anything, "tok").Return(nil, apperrors.Network("down", nil)).Once()
	next.On("Fetch", mock.Anything, "tok").Return(&model.Report{Statistics: model.Statistics{TotalCitas: 1}}, nil).Once()

	cached := NewCached(next, time.Minute)
	_, err := cached.Fetch(ctx, "tok")
	assert.ErrorIs(t, err, apperrors.NetworkError)

	r, err := cached.Fetch(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Statistics.TotalCitas)

	r, err = cached.Fetch(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Statistics.TotalCitas)
	next.AssertExpectations(t)
}

func TestCachedInvalidate(t *testing.T) {
	ctx := context.Background()
	next := new(reporterMock)
	next.On("ByStatus", mock.Anything, "").Return(model.StatusBreakdown{Pendientes: 1}, nil).Twice()

	cached := NewCached(next, time.Minute)
	_, err := cached.ByStatus(ctx, "")
	require.NoError(t, err)
	cached.Invalidate()
	_, err = cached.ByStatus(ctx, "")
	require.NoError(t, err)
	next.AssertExpectations(t)
}

func reportingServer(t *testing.T, calls *int32, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		var body interface{}
		switch r.URL.Path {
		case statisticsPath:
			body = map[string]int{"totalCitas": 5, "completadas": 2, "pendientes": 2, "canceladas": 1}
		case monthlyPath:
			body = []int{1, 2, 3}
		case byDoctorPath:
			body = []map[string]interface{}{{"medico": "Ana Ruiz", "cantidad": 5}}
		case byStatusPath:
			body = map[string]int{"pendientes": 2, "completadas": 2, "canceladas": 1}
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func TestRemoteFetch(t *testing.T) {
	var calls int32
	srv := reportingServer(t, &calls, http.StatusOK)
	defer srv.Close()

	remote := NewRemote(RemoteConfig{BaseURL: srv.URL + "/", Timeout: time.Second}, nil)
	r, err := remote.Fetch(context.Background(), "tok")
	require.NoError(t, err)

	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Equal(t, 5, r.Statistics.TotalCitas)
	assert.Equal(t, model.MonthlyCounts{1, 2, 3}, r.PerMonth)
	assert.Equal(t, []model.DoctorCount{{Medico: "Ana Ruiz", Cantidad: 5}}, r.PerDoctor)
	assert.Equal(t, model.StatusBreakdown{Pendientes: 2, Completadas: 2, Canceladas: 1}, r.ByStatus)
}

func TestRemoteErrors(t *testing.T) {
	ctx := context.Background()

	var calls int32
	ok := reportingServer(t, &calls, http.StatusOK)
	defer ok.Close()
	_, err := NewRemote(RemoteConfig{BaseURL: ok.URL}, nil).Statistics(ctx, "other")
	assert.ErrorIs(t, err, &apperrors.AppError{Code: apperrors.ErrUnauthorized})

	forbidden := reportingServer(t, &calls, http.StatusForbidden)
	defer forbidden.Close()
	_, err = NewRemote(RemoteConfig{BaseURL: forbidden.URL}, nil).Fetch(ctx, "tok")
	assert.ErrorIs(t, err, apperrors.ForbiddenError)

	failing := reportingServer(t, &calls, http.StatusInternalServerError)
	defer failing.Close()
	_, err = NewRemote(RemoteConfig{BaseURL: failing.URL}, nil).ByStatus(ctx, "tok")
	assert.ErrorIs(t, err, apperrors.NetworkError)

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer garbage.Close()
	_, err = NewRemote(RemoteConfig{BaseURL: garbage.URL}, nil).ByDoctor(ctx, "tok")
	assert.ErrorIs(t, err, apperrors.NetworkError)

	_, err = NewRemote(RemoteConfig{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}, nil).MonthlyCounts(ctx, "tok")
	assert.ErrorIs(t, err, apperrors.NetworkError)
}

func TestRemoteBreakerStopsCalling(t *testing.T) {
	var calls int32
	srv := reportingServer(t, &calls, http.StatusBadGateway)
	defer srv.Close()

	remote := NewRemote(RemoteConfig{BaseURL: srv.URL}, nil)
	for i := 0; i < 8; i++ {
		_, err := remote.Statistics(context.Background(), "tok")
		assert.ErrorIs(t, err, apperrors.NetworkError)
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}
