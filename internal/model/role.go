package model

import (
	"encoding/json"
	"strings"
)

// Role gates which dashboard a client may see.
type Role int

const (
	RoleGuest Role = iota
	RolePatient
	RoleDoctor
	RoleAdmin
)

// Claim values carried in the `rol` token claim by the identity provider.
const (
	ClaimAdmin   = "admin"
	ClaimPatient = "paciente"
	ClaimDoctor  = "medico"
)

var AllRoles = []Role{RoleGuest, RolePatient, RoleDoctor, RoleAdmin}

func (r Role) String() string {
	switch r {
	case RolePatient:
		return "patient"
	case RoleDoctor:
		return "doctor"
	case RoleAdmin:
		return "admin"
	default:
		return "guest"
	}
}

// Claim returns the role spelled the way the identity provider writes it.
// Guests have no claim.
func (r Role) Claim() string {
	switch r {
	case RolePatient:
		return ClaimPatient
	case RoleDoctor:
		return ClaimDoctor
	case RoleAdmin:
		return ClaimAdmin
	default:
		return ""
	}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r >= RoleGuest && r <= RoleAdmin
}

// Registrable reports whether an identity may be created with this role.
func (r Role) Registrable() bool {
	return r == RolePatient || r == RoleDoctor || r == RoleAdmin
}

// ParseRole accepts English names and the provider's claim spellings.
// Unknown values map to RoleGuest.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "patient", "paciente":
		return RolePatient
	case "doctor", "medico", "médico":
		return RoleDoctor
	case "admin", "administrador", "administrator":
		return RoleAdmin
	default:
		return RoleGuest
	}
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

// MarshalText lets Role be used in config and query binding.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	*r = ParseRole(string(text))
	return nil
}
