package appointment

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/clinic-portal/internal/model"
)

// TransitionPolicy decides which status changes UpdateStatus accepts.
type TransitionPolicy interface {
	Allow(from, to model.AppointmentStatus) bool
	Name() string
}

// PermissivePolicy lets every status reach every other status.
type PermissivePolicy struct{}

func (PermissivePolicy) Allow(from, to model.AppointmentStatus) bool { return true }
func (PermissivePolicy) Name() string                                { return "permissive" }

// DirectedPolicy treats cancelled as terminal.
type DirectedPolicy struct{}

func (DirectedPolicy) Allow(from, to model.AppointmentStatus) bool {
	if from == model.AppointmentStatusCancelled {
		return to == model.AppointmentStatusCancelled
	}
	return true
}

func (DirectedPolicy) Name() string { return "directed" }

// PolicyByName resolves the config value; empty means permissive.
func PolicyByName(name string) (TransitionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "permissive":
		return PermissivePolicy{}, nil
	case "directed":
		return DirectedPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown transition policy %q", name)
}
