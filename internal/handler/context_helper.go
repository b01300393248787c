package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/physics-portal-api/internal/middleware"
	"github.com/noah-isme/physics-portal-api/internal/models"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
	appErrors "github.com/noah-isme/physics-portal-api/pkg/errors"
	"github.com/noah-isme/physics-portal-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// cached writes a catalog payload with its cache metadata.
func cached(c *gin.Context, data interface{}, hit bool) {
	middleware.SetCacheHit(c, hit)
	response.Catalog(c, data, middleware.ExtractMeta(c))
}

func kindParam(c *gin.Context) (taxonomy.Kind, bool) {
	kind, ok := taxonomy.ParseKind(c.Param("kind"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown content type "+c.Param("kind")))
		return "", false
	}
	return kind, true
}

// formFile opens an optional multipart file. The returned closer is never nil.
func formFile(c *gin.Context, field string) (*models.Upload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+field+" upload")
	}
	return openUpload(header)
}

func openUpload(header *multipart.FileHeader) (*models.Upload, func(), error) {
	file, err := header.Open()
	if err != nil {
		return nil, func() {}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	return &models.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, func() { _ = file.Close() }, nil
}

// formUploads reads the pdf and solution parts of an admin form.
func formUploads(c *gin.Context) (models.ContentUploads, func(), error) {
	pdf, closePDF, err := formFile(c, "pdf")
	if err != nil {
		return models.ContentUploads{}, func() {}, err
	}
	solution, closeSolution, err := formFile(c, "solution")
	if err != nil {
		closePDF()
		return models.ContentUploads{}, func() {}, err
	}
	return models.ContentUploads{PDF: pdf, Solution: solution}, func() {
		closePDF()
		closeSolution()
	}, nil
}
