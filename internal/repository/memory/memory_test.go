package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-portal/internal/model"
	apperrors "github.com/jwalitptl/clinic-portal/pkg/errors"
)

func TestIdentityRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewIdentityRepository()

	require.NoError(t, repo.Create(ctx, &model.Credential{
		Identity:     model.Identity{ID: "u1", Name: "Ana", Email: "A@X.com", Role: model.RoleDoctor},
		PasswordHash: "hash",
	}))

	err := repo.Create(ctx, &model.Credential{Identity: model.Identity{ID: "u2", Email: "a@x.com"}})
	assert.ErrorIs(t, err, apperrors.EmailAlreadyRegistered)

	cred, err := repo.GetByEmail(ctx, " a@X.COM ")
	require.NoError(t, err)
	assert.Equal(t, "u1", cred.ID)
	assert.Equal(t, "hash", cred.PasswordHash)

	identity, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, identity.Role)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.NotFoundError)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAppointmentRepositoryKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository()

	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.Create(ctx, &model.Appointment{ID: fmt.Sprintf("a%d", i), DoctorID: "d1"}))
	}

	removed, err := repo.Delete(ctx, "a2")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, "a2")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, repo.Create(ctx, &model.Appointment{ID: "a4", DoctorID: "d1"}))

	all, err := repo.List(ctx, model.AppointmentFilter{})
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, a := range all {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a1", "a3", "a4"}, ids)

	got, err := repo.Get(ctx, "a3")
	require.NoError(t, err)
	assert.Equal(t, "a3", got.ID)
}

func TestAppointmentRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository()
	apt := &model.Appointment{ID: "a1", Status: model.AppointmentStatusPending}
	require.NoError(t, repo.Create(ctx, apt))

	apt.Status = model.AppointmentStatusCancelled
	listed, err := repo.List(ctx, model.AppointmentFilter{})
	require.NoError(t, err)
	listed[0].Reason = "changed"

	stored, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, stored.Status)
	assert.Empty(t, stored.Reason)

	err = repo.Update(ctx, &model.Appointment{ID: "missing"})
	assert.ErrorIs(t, err, apperrors.NotFoundError)
}

func TestAppointmentRepositoryConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository()
	require.NoError(t, repo.Create(ctx, &model.Appointment{ID: "a1", Status: model.AppointmentStatusPending}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := model.AppointmentStatusConfirmed
			if i%2 == 0 {
				status = model.AppointmentStatusCancelled
			}
			_ = repo.Update(ctx, &model.Appointment{ID: "a1", Status: status})
		}(i)
	}
	wg.Wait()

	got, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Contains(t, []model.AppointmentStatus{model.AppointmentStatusConfirmed, model.AppointmentStatusCancelled}, got.Status)
}

func TestTokenRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTokenRepository(time.Minute)

	token, err := repo.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, repo.Save(ctx, "c1", "tok", time.Hour))
	token, err = repo.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	require.NoError(t, repo.Clear(ctx, "c1"))
	token, err = repo.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, token)
}
