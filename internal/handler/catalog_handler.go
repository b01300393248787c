package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/physics-portal-api/internal/dto"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
	"github.com/noah-isme/physics-portal-api/pkg/response"
)

type catalogService interface {
	Levels() []dto.LevelCard
	Vocabulary() dto.Vocabulary
	LevelPage(ctx context.Context, yearID string) (*dto.LevelPage, bool, error)
	Grouped(ctx context.Context, kind taxonomy.Kind, query dto.GroupedQuery) (taxonomy.Tree, bool, error)
	Bac(ctx context.Context) (taxonomy.BacBoard, bool, error)
	Recent(ctx context.Context) ([]taxonomy.Item, bool, error)
	Detail(ctx context.Context, kind taxonomy.Kind, id string) (*dto.ContentDetail, bool, error)
	Related(ctx context.Context, kind taxonomy.Kind, id string) ([]taxonomy.Item, bool, error)
	Search(ctx context.Context, query string, filter taxonomy.Filter) ([]taxonomy.Entry, bool, error)
}

// CatalogHandler serves the public read API.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// Levels godoc
// @Summary List school years
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /levels [get]
func (h *CatalogHandler) Levels(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Levels(), nil)
}

// Taxonomy godoc
// @Summary Trimester, exam-type and bac labels
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /taxonomy [get]
func (h *CatalogHandler) Taxonomy(c *gin.Context) {
	response.Catalog(c, h.service.Vocabulary(), nil)
}

// LevelPage godoc
// @Summary Lessons, exams and videos of a year
// @Description Unknown year ids are served the first configured year with fallback=true.
// @Tags Catalog
// @Produce json
// @Param yearId path string true "Year ID"
// @Success 200 {object} response.Envelope
// @Router /levels/{yearId} [get]
func (h *CatalogHandler) LevelPage(c *gin.Context) {
	page, hit, err := h.service.LevelPage(c.Request.Context(), c.Param("yearId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	cached(c, page, hit)
}

// Grouped godoc
// @Summary Grouped listing of one content kind
// @Tags Catalog
// @Produce json
// @Param branches query bool false "Split branched years into branches"
// @Param breakdown query bool false "Split exam buckets by trimester and exam type"
// @Success 200 {object} response.Envelope
// @Router /lessons/grouped [get]
// @Router /exams/grouped [get]
// @Router /videos/grouped [get]
func (h *CatalogHandler) Grouped(kind taxonomy.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query dto.GroupedQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
			return
		}
		tree, hit, err := h.service.Grouped(c.Request.Context(), kind, query)
		if err != nil {
			response.Error(c, err)
			return
		}
		cached(c, tree, hit)
	}
}

// Bac godoc
// @Summary Baccalaureate papers by branch
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bac [get]
func (h *CatalogHandler) Bac(c *gin.Context) {
	board, hit, err := h.service.Bac(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	cached(c, board, hit)
}

// Recent godoc
// @Summary Newest content across kinds
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /recent [get]
func (h *CatalogHandler) Recent(c *gin.Context) {
	items, hit, err := h.service.Recent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	cached(c, items, hit)
}

// Detail godoc
// @Summary Content detail
// @Tags Catalog
// @Produce json
// @Param kind path string true "lesson, exam, video or bac"
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /content/{kind}/{id} [get]
func (h *CatalogHandler) Detail(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	detail, hit, err := h.service.Detail(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	cached(c, detail, hit)
}

// Related godoc
// @Summary Related content
// @Tags Catalog
// @Produce json
// @Param kind path string true "lesson, exam, video or bac"
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Router /content/{kind}/{id}/related [get]
func (h *CatalogHandler) Related(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	items, hit, err := h.service.Related(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	cached(c, items, hit)
}

// Search godoc
// @Summary Search every content kind
// @Tags Catalog
// @Produce json
// @Param q query string true "Query"
// @Param type query string false "all, lesson, exam, video or bac"
// @Success 200 {object} response.Envelope
// @Router /search [get]
func (h *CatalogHandler) Search(c *gin.Context) {
	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	filter, ok := taxonomy.ParseFilter(query.Type)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown search type "+query.Type))
		return
	}
	results, hit, err := h.service.Search(c.Request.Context(), query.Q, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	cached(c, dto.SearchResponse{Query: query.Q, Type: string(filter), Count: len(results), Results: results}, hit)
}
