package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/mailforge/mailsync/api/handlers"
	"github.com/mailforge/mailsync/api/middleware"
	"github.com/mailforge/mailsync/internal/repository"
	"github.com/mailforge/mailsync/internal/tracing"
	"github.com/mailforge/mailsync/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	apiHandlers := handlers.InitHandlers(repos, s)

	// Health endpoint, no auth
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-MAILSYNC-API-KEY",
		ValidAPIKey: apikey,
	})

	v1 := r.Group("/v1")
	v1.Use(apiKeyMiddleware)
	{
		mailboxes := v1.Group("/mailboxes")
		{
			mailboxes.GET("", apiHandlers.Mailboxes.List())
			mailboxes.POST("", apiHandlers.Mailboxes.Create())
			mailboxes.GET("/:id", apiHandlers.Mailboxes.Get())
			mailboxes.PUT("/:id", apiHandlers.Mailboxes.Update())
			mailboxes.DELETE("/:id", apiHandlers.Mailboxes.Delete())

			mailboxes.GET("/:id/folders", apiHandlers.Mailboxes.ListFolders())
			mailboxes.GET("/:id/emails", apiHandlers.Emails.List())
			mailboxes.POST("/:id/sync", apiHandlers.Sync.Trigger())
		}
	}
}
