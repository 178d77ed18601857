package router

import (
	"github.com/jwalitptl/clinic-portal/internal/model"
)

// Screen is a client-side route of the portal.
type Screen string

const (
	ScreenLanding  Screen = "/"
	ScreenLogin    Screen = "/login"
	ScreenRegister Screen = "/register"
	ScreenPatient  Screen = "/paciente"
	ScreenDoctor   Screen = "/medico"
	ScreenAdmin    Screen = "/admin"
	ScreenReports  Screen = "/admin/reportes"
)

var publicScreens = []Screen{ScreenLanding, ScreenLogin, ScreenRegister}

// DashboardFor is the screen a role lands on. Guests land on the login screen.
func DashboardFor(role model.Role) Screen {
	switch role {
	case model.RolePatient:
		return ScreenPatient
	case model.RoleDoctor:
		return ScreenDoctor
	case model.RoleAdmin:
		return ScreenAdmin
	case model.RoleGuest:
		return ScreenLogin
	}
	return ScreenLogin
}

// AllowedScreens lists what role may render. Dashboards other than the role's
// own are never included.
func AllowedScreens(role model.Role) []Screen {
	out := append([]Screen(nil), publicScreens...)
	switch role {
	case model.RolePatient:
		out = append(out, ScreenPatient)
	case model.RoleDoctor:
		out = append(out, ScreenDoctor)
	case model.RoleAdmin:
		out = append(out, ScreenAdmin, ScreenReports)
	case model.RoleGuest:
	}
	return out
}

// CanView reports whether role may render screen.
func CanView(role model.Role, screen Screen) bool {
	for _, s := range AllowedScreens(role) {
		if s == screen {
			return true
		}
	}
	return false
}

// DestinationForClaim picks the post-login screen from the raw role claim of
// the token. The claim is read the way the session reads it, so the redirect
// and the session role always agree. Unknown claims go to the landing screen.
func DestinationForClaim(rol string) Screen {
	role := model.ParseRole(rol)
	if role == model.RoleGuest {
		return ScreenLanding
	}
	return DashboardFor(role)
}

// Dashboard adapts DashboardFor to the role gate middleware.
func Dashboard(role model.Role) string {
	return string(DashboardFor(role))
}
