package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/physics-portal-api/internal/models"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
	"github.com/noah-isme/physics-portal-api/pkg/response"
)

type contactService interface {
	Submit(ctx context.Context, req models.ContactRequest) (*models.ContactMessage, error)
	List(ctx context.Context, page, size int) ([]models.ContactMessage, *models.Pagination, error)
	Delete(ctx context.Context, id string) error
}

// ContactHandler exposes the contact form and its admin inbox.
type ContactHandler struct {
	service contactService
}

// NewContactHandler constructs the handler.
func NewContactHandler(service contactService) *ContactHandler {
	return &ContactHandler{service: service}
}

// Submit godoc
// @Summary Send a contact message
// @Tags Contact
// @Accept json
// @Produce json
// @Param payload body models.ContactRequest true "Message"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid contact payload"))
		return
	}
	msg, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// List godoc
// @Summary List contact messages
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/messages [get]
func (h *ContactHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	messages, pagination, err := h.service.List(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, pagination)
}

// Delete godoc
// @Summary Delete a contact message
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/messages/{id} [delete]
func (h *ContactHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
