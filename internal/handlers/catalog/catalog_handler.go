// internal/handlers/catalog/catalog_handler.go
package catalog

import (
	"context"
	"net/http"

	"hellofixo-service/internal/domain/catalog"
	"hellofixo-service/internal/middleware"
	"hellofixo-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	ListCategories(ctx context.Context, lang string) ([]catalog.ServiceCategory, error)
	GetCategory(ctx context.Context, slug, lang string) (*catalog.ServiceCategory, error)
	InvalidateCache(ctx context.Context) error
}

type CatalogHandler struct {
	service Service
	logger  *zap.Logger
}

func NewCatalogHandler(service Service, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{service: service, logger: logger}
}

// ListCategories returns every active category with its problems, localized.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context(), middleware.RequestLang(c))
	if err != nil {
		h.logger.Error("failed to list categories", zap.Error(err))
		response.FromError(c, "failed to list categories", err)
		return
	}

	response.Success(c, http.StatusOK, "categories retrieved", categories)
}

func (h *CatalogHandler) GetCategory(c *gin.Context) {
	category, err := h.service.GetCategory(c.Request.Context(), c.Param("slug"), middleware.RequestLang(c))
	if err != nil {
		response.FromError(c, "failed to get category", err)
		return
	}

	response.Success(c, http.StatusOK, "category retrieved", category)
}

// InvalidateCache drops cached catalogs after an admin edits the tables directly.
func (h *CatalogHandler) InvalidateCache(c *gin.Context) {
	if err := h.service.InvalidateCache(c.Request.Context()); err != nil {
		response.FromError(c, "failed to invalidate catalog cache", err)
		return
	}

	response.Success(c, http.StatusOK, "catalog cache cleared", nil)
}
