package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/middleware"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/router"
)

// Handler exposes the session store of the request's client context.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required"`
	Password      string `json:"password" binding:"required"`
	Role          string `json:"role" binding:"required"`
	LicenseNumber string `json:"license_number"`
}

type LoginResponse struct {
	Session  *model.Session `json:"session"`
	Redirect router.Screen  `json:"redirect"`
}

type SessionResponse struct {
	Role      model.Role      `json:"role"`
	Identity  *model.Identity `json:"identity,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Dashboard router.Screen   `json:"dashboard"`
}

// RegisterAuthRoutes is rate limited by the caller; it carries credentials.
func (h *Handler) RegisterAuthRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/register", h.Register)
		auth.POST("/logout", h.Logout)
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/session", h.Session)
	r.GET("/notifications", h.Notifications)
	r.GET("/screens", h.Screens)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr := handler.BindError(err, "email and password are required")
		handler.NotifyError(c, bindErr)
		handler.Fail(c, bindErr)
		return
	}

	store := middleware.CurrentClient(c).Session
	sess, err := store.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(LoginResponse{
		Session:  sess,
		Redirect: router.DestinationForClaim(store.Claim()),
	}))
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErr := handler.BindError(err, "name, email, password and role are required")
		handler.NotifyError(c, bindErr)
		handler.Fail(c, bindErr)
		return
	}

	draft := model.IdentityDraft{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Role:          model.ParseRole(req.Role),
		LicenseNumber: req.LicenseNumber,
	}

	ok, err := middleware.CurrentClient(c).Session.Register(c.Request.Context(), draft)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{
		"registered": ok,
		"redirect":   router.ScreenLogin,
	}))
}

func (h *Handler) Logout(c *gin.Context) {
	middleware.CurrentClient(c).Session.Logout(c.Request.Context())
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"redirect": router.ScreenLanding}))
}

func (h *Handler) Session(c *gin.Context) {
	resp := SessionResponse{Role: model.RoleGuest, Dashboard: router.DashboardFor(model.RoleGuest)}
	if sess, ok := middleware.CurrentSession(c); ok {
		identity := sess.Identity
		resp.Role = sess.Role()
		resp.Identity = &identity
		resp.Dashboard = router.DashboardFor(resp.Role)
		if !sess.ExpiresAt.IsZero() {
			exp := sess.ExpiresAt
			resp.ExpiresAt = &exp
		}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

func (h *Handler) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(middleware.CurrentClient(c).Notifications.Drain()))
}

func (h *Handler) Screens(c *gin.Context) {
	role := middleware.CurrentClient(c).Session.CurrentRole()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"role":      role,
		"dashboard": router.DashboardFor(role),
		"screens":   router.AllowedScreens(role),
	}))
}
