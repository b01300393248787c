package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/physics-portal-api/internal/models"
	"github.com/noah-isme/physics-portal-api/internal/service"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
	"github.com/noah-isme/physics-portal-api/pkg/export"
	"github.com/noah-isme/physics-portal-api/pkg/response"
)

type statsService interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
}

type exportService interface {
	Inventory(ctx context.Context, kind taxonomy.Kind, format export.Format) (*service.ExportFile, error)
}

// AdminHandler serves the back-office dashboard and inventory export.
type AdminHandler struct {
	stats  statsService
	export exportService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(stats statsService, exporter exportService) *AdminHandler {
	return &AdminHandler{stats: stats, export: exporter}
}

// Stats godoc
// @Summary Dashboard counters
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Download the content inventory
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param format query string false "csv, pdf or xlsx"
// @Param kind query string false "lesson, exam, video or bac; all kinds when empty"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export format"))
		return
	}

	var kind taxonomy.Kind
	if raw := c.Query("kind"); raw != "" && raw != string(taxonomy.FilterAll) {
		parsed, ok := taxonomy.ParseKind(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown content type "+raw))
			return
		}
		kind = parsed
	}

	file, err := h.export.Inventory(c.Request.Context(), kind, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
