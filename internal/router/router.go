// Package router assembles the HTTP surface of the portal.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/physics-portal-api/internal/handler"
	"github.com/noah-isme/physics-portal-api/internal/middleware"
	"github.com/noah-isme/physics-portal-api/internal/taxonomy"
	"github.com/noah-isme/physics-portal-api/pkg/config"
	"github.com/noah-isme/physics-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/physics-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/physics-portal-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Catalog      *handler.CatalogHandler
	Contact      *handler.ContactHandler
	Auth         *handler.AuthHandler
	AdminContent *handler.AdminContentHandler
	AdminBac     *handler.AdminBacHandler
	Admin        *handler.AdminHandler
	Metrics      *handler.MetricsHandler
}

// Options carries the router level settings.
type Options struct {
	Config   *config.Config
	Logger   *zap.Logger
	Tokens   middleware.TokenValidator
	Observer middleware.RequestObserver
}

// New builds the gin engine with middleware and routes.
func New(opts Options, h Handlers) *gin.Engine {
	cfg := opts.Config
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if opts.Observer != nil {
		r.Use(middleware.Metrics(opts.Observer))
	}
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Storage.Dir != "" {
		r.Static("/files", cfg.Storage.Dir)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.GET("/levels", h.Catalog.Levels)
	api.GET("/taxonomy", h.Catalog.Taxonomy)
	api.GET("/levels/:yearId", h.Catalog.LevelPage)
	api.GET("/lessons/grouped", h.Catalog.Grouped(taxonomy.KindLesson))
	api.GET("/exams/grouped", h.Catalog.Grouped(taxonomy.KindExam))
	api.GET("/videos/grouped", h.Catalog.Grouped(taxonomy.KindVideo))
	api.GET("/bac", h.Catalog.Bac)
	api.GET("/recent", h.Catalog.Recent)
	api.GET("/search", h.Catalog.Search)
	api.GET("/content/:kind/:id", h.Catalog.Detail)
	api.GET("/content/:kind/:id/related", h.Catalog.Related)
	api.POST("/contact", h.Contact.Submit)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/signup", h.Auth.SignUp)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", middleware.JWT(opts.Tokens), h.Auth.Logout)
	auth.GET("/session", middleware.JWT(opts.Tokens), h.Auth.Session)

	admin := api.Group("/admin", middleware.JWT(opts.Tokens))
	admin.GET("/stats", h.Admin.Stats)
	admin.GET("/export", h.Admin.Export)

	admin.GET("/content/:kind", h.AdminContent.List)
	admin.POST("/content/:kind", h.AdminContent.Create)
	admin.GET("/content/:kind/:id", h.AdminContent.Get)
	admin.PUT("/content/:kind/:id", h.AdminContent.Update)
	admin.DELETE("/content/:kind/:id", h.AdminContent.Delete)

	admin.GET("/bac", h.AdminBac.List)
	admin.POST("/bac", h.AdminBac.Create)
	admin.GET("/bac/:id", h.AdminBac.Get)
	admin.PUT("/bac/:id", h.AdminBac.Update)
	admin.DELETE("/bac/:id", h.AdminBac.Delete)

	admin.GET("/messages", h.Contact.List)
	admin.DELETE("/messages/:id", h.Contact.Delete)

	return r
}
