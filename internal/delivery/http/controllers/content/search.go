package content

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadaliyev66/CAM-APP/internal/delivery/http/controllers"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
)

type Searcher interface {
	Search(ctx context.Context, query, collection string, size int) ([]models.Lesson, error)
}

type SearchHandler struct {
	catalog   Catalog
	searcher  Searcher
	presenter Presenter
}

func NewSearchHandler(catalog Catalog, searcher Searcher, presenter Presenter) *SearchHandler {
	return &SearchHandler{catalog: catalog, searcher: searcher, presenter: presenter}
}

// Search finds lessons by ?q=, optionally within the collection at ?path=.
func (h *SearchHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	if size <= 0 || size > 50 {
		size = 10
	}

	var collection string
	if raw := tree.ParseKey(c.Query("path")); len(raw) > 0 {
		var err error
		if collection, err = h.catalog.CollectionPath(raw); err != nil {
			controllers.Fail(c, err)
			return
		}
	}

	lessons, err := h.searcher.Search(c.Request.Context(), query, collection, size)
	if err != nil {
		controllers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lessons": h.presenter.Present(c.Request.Context(), lessons)})
}
