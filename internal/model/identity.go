package model

import "strings"

// Identity is a registered user as the portal sees it. It never carries credentials.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`

	// LicenseNumber is the professional licence of a doctor.
	LicenseNumber string `json:"license_number,omitempty"`
}

// IdentityDraft is what a client submits to register. Only the identity provider
// reads Password. Doctors must give a licence number (Role 2 is RoleDoctor).
type IdentityDraft struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required"`
	Role          Role   `json:"role"`
	LicenseNumber string `json:"license_number" validate:"required_if=Role 2,max=32"`
}

// Identity returns the draft without credential material.
func (d IdentityDraft) Identity(id string) Identity {
	return Identity{
		ID:            id,
		Name:          d.Name,
		Email:         NormalizeEmail(d.Email),
		Role:          d.Role,
		LicenseNumber: strings.TrimSpace(d.LicenseNumber),
	}
}

// NormalizeEmail is the form used for duplicate checks and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Credential is an identity plus its password hash, held by the mock provider only.
type Credential struct {
	Identity
	PasswordHash string `json:"-"`
}
