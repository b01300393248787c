package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/physics-portal-api/internal/models"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
	"github.com/noah-isme/physics-portal-api/pkg/response"
)

type bacService interface {
	List(ctx context.Context) ([]models.BacExam, error)
	Get(ctx context.Context, id string) (*models.BacExam, error)
	Create(ctx context.Context, input models.BacExamInput, files models.ContentUploads) (*models.BacExam, error)
	Update(ctx context.Context, id string, input models.BacExamInput, files models.ContentUploads) (*models.BacExam, error)
	Delete(ctx context.Context, id string) error
}

// AdminBacHandler manages baccalaureate papers.
type AdminBacHandler struct {
	service bacService
}

// NewAdminBacHandler constructs the handler.
func NewAdminBacHandler(service bacService) *AdminBacHandler {
	return &AdminBacHandler{service: service}
}

// List godoc
// @Summary List bac papers
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/bac [get]
func (h *AdminBacHandler) List(c *gin.Context) {
	exams, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams, nil)
}

// Get godoc
// @Summary Get a bac paper
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/bac/{id} [get]
func (h *AdminBacHandler) Get(c *gin.Context) {
	exam, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Create godoc
// @Summary Create a bac paper
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param year formData int true "Session year"
// @Param branch formData string true "se or mt"
// @Param pdf formData file true "Paper"
// @Param solution formData file false "Solution"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/bac [post]
func (h *AdminBacHandler) Create(c *gin.Context) {
	input, files, done, ok := bindBacForm(c)
	if !ok {
		return
	}
	defer done()

	exam, err := h.service.Create(c.Request.Context(), input, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

// Update godoc
// @Summary Update a bac paper
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Router /admin/bac/{id} [put]
func (h *AdminBacHandler) Update(c *gin.Context) {
	input, files, done, ok := bindBacForm(c)
	if !ok {
		return
	}
	defer done()

	exam, err := h.service.Update(c.Request.Context(), c.Param("id"), input, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Delete godoc
// @Summary Delete a bac paper
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Paper ID"
// @Success 204
// @Router /admin/bac/{id} [delete]
func (h *AdminBacHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func bindBacForm(c *gin.Context) (models.BacExamInput, models.ContentUploads, func(), bool) {
	var input models.BacExamInput
	if err := c.ShouldBind(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bac payload"))
		return input, models.ContentUploads{}, nil, false
	}
	files, done, err := formUploads(c)
	if err != nil {
		response.Error(c, err)
		return input, files, nil, false
	}
	return input, files, done, true
}
