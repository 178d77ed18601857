package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
)

var _ Reporter = (*Local)(nil)

// Local computes the report from the appointment store. Confirmed appointments
// count as completed.
type Local struct {
	appointments repository.AppointmentRepository
	identities   repository.IdentityRepository
}

func NewLocal(appointments repository.AppointmentRepository, identities repository.IdentityRepository) *Local {
	return &Local{appointments: appointments, identities: identities}
}

func (l *Local) Statistics(ctx context.Context, _ string) (model.Statistics, error) {
	all, err := l.all(ctx)
	if err != nil {
		return model.Statistics{}, err
	}
	status := breakdown(all)
	return model.Statistics{
		TotalCitas:  len(all),
		Completadas: status.Completadas,
		Pendientes:  status.Pendientes,
		Canceladas:  status.Canceladas,
	}, nil
}

func (l *Local) MonthlyCounts(ctx context.Context, _ string) (model.MonthlyCounts, error) {
	all, err := l.all(ctx)
	if err != nil {
		return model.MonthlyCounts{}, err
	}
	return monthly(all), nil
}

func (l *Local) ByDoctor(ctx context.Context, _ string) ([]model.DoctorCount, error) {
	all, err := l.all(ctx)
	if err != nil {
		return nil, err
	}
	return l.byDoctor(ctx, all)
}

func (l *Local) ByStatus(ctx context.Context, _ string) (model.StatusBreakdown, error) {
	all, err := l.all(ctx)
	if err != nil {
		return model.StatusBreakdown{}, err
	}
	return breakdown(all), nil
}

// Fetch builds all four aggregates from a single snapshot.
func (l *Local) Fetch(ctx context.Context, _ string) (*model.Report, error) {
	all, err := l.all(ctx)
	if err != nil {
		return nil, err
	}
	perDoctor, err := l.byDoctor(ctx, all)
	if err != nil {
		return nil, err
	}
	status := breakdown(all)
	return &model.Report{
		Statistics: model.Statistics{
			TotalCitas:  len(all),
			Completadas: status.Completadas,
			Pendientes:  status.Pendientes,
			Canceladas:  status.Canceladas,
		},
		PerMonth:  monthly(all),
		PerDoctor: perDoctor,
		ByStatus:  status,
	}, nil
}

func (l *Local) all(ctx context.Context) ([]*model.Appointment, error) {
	all, err := l.appointments.List(ctx, model.AppointmentFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return all, nil
}

// byDoctor counts per doctor, highest first, labelled with the doctor's name
// when the identity is known.
func (l *Local) byDoctor(ctx context.Context, all []*model.Appointment) ([]model.DoctorCount, error) {
	counts := make(map[string]int)
	for _, apt := range all {
		counts[apt.DoctorID]++
	}

	out := make([]model.DoctorCount, 0, len(counts))
	for doctorID, n := range counts {
		label := doctorID
		if identity, err := l.identities.Get(ctx, doctorID); err == nil && identity.Name != "" {
			label = identity.Name
		}
		out = append(out, model.DoctorCount{Medico: label, Cantidad: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cantidad != out[j].Cantidad {
			return out[i].Cantidad > out[j].Cantidad
		}
		return out[i].Medico < out[j].Medico
	})
	return out, nil
}

func breakdown(all []*model.Appointment) model.StatusBreakdown {
	var out model.StatusBreakdown
	for _, apt := range all {
		switch apt.Status {
		case model.AppointmentStatusPending:
			out.Pendientes++
		case model.AppointmentStatusConfirmed:
			out.Completadas++
		case model.AppointmentStatusCancelled:
			out.Canceladas++
		}
	}
	return out
}

func monthly(all []*model.Appointment) model.MonthlyCounts {
	var out model.MonthlyCounts
	for _, apt := range all {
		if apt.StartTime.IsZero() {
			continue
		}
		out[apt.StartTime.Month()-1]++
	}
	return out
}
