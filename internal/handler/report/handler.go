package report

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/middleware"
	"github.com/jwalitptl/clinic-portal/internal/service/report"
)

type Handler struct {
	reporter report.Reporter
}

func NewHandler(reporter report.Reporter) *Handler {
	return &Handler{reporter: reporter}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reportes")
	{
		reports.GET("", h.Report)
		reports.GET("/estadisticas", h.Statistics)
		reports.GET("/citas-mes", h.MonthlyCounts)
		reports.GET("/citas-medico", h.ByDoctor)
		reports.GET("/estado", h.ByStatus)
	}
}

func token(c *gin.Context) string {
	if sess, ok := middleware.CurrentSession(c); ok {
		return sess.Token
	}
	return ""
}

func (h *Handler) Report(c *gin.Context) {
	out, err := h.reporter.Fetch(c.Request.Context(), token(c))
	if err != nil {
		handler.NotifyError(c, err)
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}

func (h *Handler) Statistics(c *gin.Context) {
	out, err := h.reporter.Statistics(c.Request.Context(), token(c))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}

func (h *Handler) MonthlyCounts(c *gin.Context) {
	out, err := h.reporter.MonthlyCounts(c.Request.Context(), token(c))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}

func (h *Handler) ByDoctor(c *gin.Context) {
	out, err := h.reporter.ByDoctor(c.Request.Context(), token(c))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}

func (h *Handler) ByStatus(c *gin.Context) {
	out, err := h.reporter.ByStatus(c.Request.Context(), token(c))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}
