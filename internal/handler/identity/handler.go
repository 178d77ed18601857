package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
)

// Handler lists the identities known to the in-process identity provider.
type Handler struct {
	repo repository.IdentityRepository
}

func NewHandler(repo repository.IdentityRepository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/identities", h.List)
}

func (h *Handler) List(c *gin.Context) {
	identities, err := h.repo.List(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}

	if role := c.Query("role"); role != "" {
		want := model.ParseRole(role)
		filtered := make([]model.Identity, 0, len(identities))
		for _, identity := range identities {
			if identity.Role == want {
				filtered = append(filtered, identity)
			}
		}
		identities = filtered
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(identities))
}
