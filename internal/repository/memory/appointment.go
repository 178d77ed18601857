package memory

import (
	"context"
	"sync"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	apperrors "github.com/jwalitptl/clinic-portal/pkg/errors"
)

var _ repository.AppointmentRepository = (*AppointmentRepository)(nil)

// AppointmentRepository serializes every call behind one lock, so concurrent
// writers to the same record resolve as last write wins.
type AppointmentRepository struct {
	mu    sync.RWMutex
	items []*model.Appointment
	index map[string]int
}

func NewAppointmentRepository() *AppointmentRepository {
	return &AppointmentRepository{
		index: make(map[string]int),
	}
}

func (r *AppointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[apt.ID]; exists {
		return apperrors.Validation("appointment id already in use", nil)
	}
	r.index[apt.ID] = len(r.items)
	r.items = append(r.items, apt.Clone())
	return nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return r.items[i].Clone(), nil
}

func (r *AppointmentRepository) Update(ctx context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[apt.ID]
	if !ok {
		return apperrors.NotFound("appointment", nil)
	}
	r.items[i] = apt.Clone()
	return nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return false, nil
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	delete(r.index, id)
	for j := i; j < len(r.items); j++ {
		r.index[r.items[j].ID] = j
	}
	return true, nil
}

func (r *AppointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Appointment, 0, len(r.items))
	for _, apt := range r.items {
		if filter.Matches(apt) {
			out = append(out, apt.Clone())
		}
	}
	return out, nil
}
