package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	apperrors "github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/metrics"
	"github.com/jwalitptl/clinic-portal/pkg/validator"
)

type Service struct {
	repo       repository.AppointmentRepository
	identities repository.IdentityRepository
	policy     TransitionPolicy
	validate   validator.Validator
	metrics    *metrics.Metrics
	newID      func() string
	now        func() time.Time
	onChange   []func()
}

func NewService(repo repository.AppointmentRepository, identities repository.IdentityRepository, policy TransitionPolicy, m *metrics.Metrics) *Service {
	if policy == nil {
		policy = PermissivePolicy{}
	}
	return &Service{
		repo:       repo,
		identities: identities,
		policy:     policy,
		validate:   validator.New(),
		metrics:    m,
		newID:      func() string { return uuid.New().String() },
		now:        time.Now,
	}
}

// OnChange registers fn to run after every successful create, status change
// or delete. Register hooks before serving requests.
func (s *Service) OnChange(fn func()) {
	if fn != nil {
		s.onChange = append(s.onChange, fn)
	}
}

func (s *Service) changed() {
	for _, fn := range s.onChange {
		fn()
	}
}

// List returns a snapshot in insertion order.
func (s *Service) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// ListFor scopes the listing to what identity may see: patients their own,
// doctors their assigned, admins everything.
func (s *Service) ListFor(ctx context.Context, identity model.Identity, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	switch identity.Role {
	case model.RolePatient:
		filter.PatientID = identity.ID
	case model.RoleDoctor:
		filter.DoctorID = identity.ID
	case model.RoleAdmin:
	case model.RoleGuest:
		return nil, apperrors.Forbidden("log in to see appointments")
	default:
		return nil, apperrors.Forbidden("unknown role")
	}
	return s.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id string) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, draft model.AppointmentDraft) (apt *model.Appointment, err error) {
	defer func() { s.metrics.ObserveAppointment("create", err) }()

	if err := s.validateDraft(ctx, draft); err != nil {
		return nil, err
	}

	now := s.now()
	apt = &model.Appointment{
		ID:        s.newID(),
		DoctorID:  draft.DoctorID,
		PatientID: draft.PatientID,
		StartTime: draft.StartTime,
		EndTime:   draft.EndTime,
		Reason:    draft.Reason,
		Title:     draft.Title,
		Status:    model.AppointmentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	s.changed()
	return apt.Clone(), nil
}

// UpdateStatus sets the status in place, subject to the transition policy.
func (s *Service) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (apt *model.Appointment, err error) {
	defer func() { s.metrics.ObserveAppointment("update_status", err) }()

	if !status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", status), nil)
	}

	apt, err = s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.policy.Allow(apt.Status, status) {
		return nil, apperrors.Validation(fmt.Sprintf("cannot move appointment from %s to %s", apt.Status, status), nil)
	}

	apt.Status = status
	apt.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, err
	}
	s.changed()
	return apt.Clone(), nil
}

// Cancel is UpdateStatus to cancelled.
func (s *Service) Cancel(ctx context.Context, id string) (*model.Appointment, error) {
	return s.UpdateStatus(ctx, id, model.AppointmentStatusCancelled)
}

// Delete removes the appointment; a missing id is not an error.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.ObserveAppointment("delete", err) }()

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	if removed {
		s.changed()
	}
	return nil
}

func (s *Service) validateDraft(ctx context.Context, draft model.AppointmentDraft) error {
	if draft.StartTime.IsZero() || draft.EndTime.IsZero() {
		return apperrors.Validation("start and end time are required", nil)
	}
	if !draft.StartTime.Before(draft.EndTime) {
		return apperrors.Validation("start time must be before end time", nil)
	}
	if err := s.validate.Validate(draft); err != nil {
		return apperrors.Validation(err.Error(), err)
	}
	if err := s.requireRole(ctx, draft.PatientID, model.RolePatient); err != nil {
		return err
	}
	return s.requireRole(ctx, draft.DoctorID, model.RoleDoctor)
}

// requireRole checks id against the identity directory. Without a directory
// (remote identity provider) ids are taken as given.
func (s *Service) requireRole(ctx context.Context, id string, role model.Role) error {
	if s.identities == nil {
		return nil
	}
	identity, err := s.identities.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.NotFoundError) {
			return apperrors.Validation(fmt.Sprintf("%s %s does not exist", role, id), nil)
		}
		return fmt.Errorf("failed to look up %s: %w", role, err)
	}
	if identity.Role != role {
		return apperrors.Validation(fmt.Sprintf("identity %s is not a %s", id, role), nil)
	}
	return nil
}

// CanCreate: patients book for themselves, admins for anyone.
func CanCreate(identity model.Identity, draft model.AppointmentDraft) bool {
	switch identity.Role {
	case model.RoleAdmin:
		return true
	case model.RolePatient:
		return draft.PatientID == identity.ID
	case model.RoleDoctor, model.RoleGuest:
		return false
	}
	return false
}

// CanUpdateStatus: the assigned doctor or an admin.
func CanUpdateStatus(identity model.Identity, apt *model.Appointment) bool {
	switch identity.Role {
	case model.RoleAdmin:
		return true
	case model.RoleDoctor:
		return apt.DoctorID == identity.ID
	case model.RolePatient, model.RoleGuest:
		return false
	}
	return false
}

// CanCancel: the owning patient, the assigned doctor or an admin.
func CanCancel(identity model.Identity, apt *model.Appointment) bool {
	switch identity.Role {
	case model.RoleAdmin:
		return true
	case model.RoleDoctor:
		return apt.DoctorID == identity.ID
	case model.RolePatient:
		return apt.PatientID == identity.ID
	case model.RoleGuest:
		return false
	}
	return false
}

// CanDelete: admins only.
func CanDelete(identity model.Identity) bool {
	return identity.Role == model.RoleAdmin
}
