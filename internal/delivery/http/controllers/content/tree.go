package content

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadaliyev66/CAM-APP/internal/delivery/http/controllers"
	"github.com/mamadaliyev66/CAM-APP/internal/service/tree"
)

type Catalog interface {
	Resolve(selections ...string) (tree.ContentPath, error)
	ChildrenOf(path tree.ContentPath) (tree.Branch, error)
	CollectionPath(path tree.ContentPath) (string, error)
}

type TreeHandler struct {
	catalog Catalog
}

func NewTreeHandler(catalog Catalog) *TreeHandler {
	return &TreeHandler{catalog: catalog}
}

type nodeView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type branchView struct {
	Path      string      `json:"path"`
	Kind      string      `json:"kind"`
	Children  []nodeView  `json:"children,omitempty"`
	Query     *tree.Query `json:"query,omitempty"`
	Suggested []string    `json:"suggested,omitempty"`
}

// Children lists what can be selected below ?path=. The empty path lists
// categories; dynamic branches describe the live query to stream instead.
func (h *TreeHandler) Children(c *gin.Context) {
	var path tree.ContentPath
	if raw := tree.ParseKey(c.Query("path")); len(raw) > 0 {
		resolved, err := h.catalog.Resolve(raw...)
		if err != nil {
			controllers.Fail(c, err)
			return
		}
		path = resolved
	}

	branch, err := h.catalog.ChildrenOf(path)
	if err != nil {
		controllers.Fail(c, err)
		return
	}

	view := branchView{Path: path.Key()}
	switch b := branch.(type) {
	case tree.StaticBranch:
		view.Kind = "static"
		view.Children = make([]nodeView, 0, len(b.Nodes))
		for _, n := range b.Nodes {
			view.Children = append(view.Children, nodeView{ID: n.ID, Title: n.Title})
		}
	case tree.DynamicBranch:
		view.Kind = "dynamic"
		q := b.Query
		view.Query = &q
		view.Suggested = b.Suggested
	}
	c.JSON(http.StatusOK, view)
}
