package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/physics-portal-api/internal/models"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
	"github.com/noah-isme/physics-portal-api/pkg/response"
)

type contentService interface {
	List(ctx context.Context, kind taxonomy.Kind) ([]models.Content, error)
	Get(ctx context.Context, kind taxonomy.Kind, id string) (*models.Content, error)
	Create(ctx context.Context, kind taxonomy.Kind, input models.ContentInput, files models.ContentUploads) (*models.Content, error)
	Update(ctx context.Context, kind taxonomy.Kind, id string, input models.ContentInput, files models.ContentUploads) (*models.Content, error)
	Delete(ctx context.Context, kind taxonomy.Kind, id string) error
}

// AdminContentHandler manages lessons, exams and videos.
type AdminContentHandler struct {
	service contentService
}

// NewAdminContentHandler constructs the handler.
func NewAdminContentHandler(service contentService) *AdminContentHandler {
	return &AdminContentHandler{service: service}
}

// List godoc
// @Summary List content of one kind
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param kind path string true "lesson, exam or video"
// @Success 200 {object} response.Envelope
// @Router /admin/content/{kind} [get]
func (h *AdminContentHandler) List(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get one content row
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param kind path string true "lesson, exam or video"
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/content/{kind}/{id} [get]
func (h *AdminContentHandler) Get(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create content
// @Description Multipart form. Lessons and exams require a pdf part, exams may add a solution part, videos require youtube_url.
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param kind path string true "lesson, exam or video"
// @Param title formData string true "Title"
// @Param level_id formData string true "Level ID"
// @Param pdf formData file false "PDF document"
// @Param solution formData file false "Solution PDF"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /admin/content/{kind} [post]
func (h *AdminContentHandler) Create(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	input, files, done, ok := bindContentForm(c)
	if !ok {
		return
	}
	defer done()

	item, err := h.service.Create(c.Request.Context(), kind, input, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update content
// @Description Omitted file parts keep the current files.
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param kind path string true "lesson, exam or video"
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/content/{kind}/{id} [put]
func (h *AdminContentHandler) Update(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	input, files, done, ok := bindContentForm(c)
	if !ok {
		return
	}
	defer done()

	item, err := h.service.Update(c.Request.Context(), kind, c.Param("id"), input, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete content
// @Tags Admin
// @Security BearerAuth
// @Param kind path string true "lesson, exam or video"
// @Param id path string true "Content ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/content/{kind}/{id} [delete]
func (h *AdminContentHandler) Delete(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), kind, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func bindContentForm(c *gin.Context) (models.ContentInput, models.ContentUploads, func(), bool) {
	var input models.ContentInput
	if err := c.ShouldBind(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid content payload"))
		return input, models.ContentUploads{}, nil, false
	}
	files, done, err := formUploads(c)
	if err != nil {
		response.Error(c, err)
		return input, files, nil, false
	}
	return input, files, done, true
}
