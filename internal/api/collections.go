package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faves_sorter/internal/domain"
)

type collectionView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func viewOf(c *domain.Collection) collectionView {
	return collectionView{ID: c.ID, Name: c.Name}
}

func (h *Handler) listCollections(c *gin.Context) {
	sess := sessionFrom(c)

	cs, err := h.collections.List(c.Request.Context(), sess.User.ID)
	if err != nil {
		respondNestedError(c, h.logger, err)
		return
	}

	views := make([]collectionView, len(cs))
	for i := range cs {
		views[i] = viewOf(&cs[i])
	}
	c.JSON(http.StatusOK, gin.H{"collections": views})
}

type createCollectionRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createCollection(c *gin.Context) {
	sess := sessionFrom(c)

	var req createCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, domain.NewValidationError("Name is required"))
		return
	}

	created, err := h.collections.Create(c.Request.Context(), sess.User.ID, req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"collection": viewOf(created)})
}

func (h *Handler) getCollection(c *gin.Context) {
	sess := sessionFrom(c)

	found, err := h.collections.Get(c.Request.Context(), sess.User.ID, c.Param("id"))
	if err != nil {
		respondNestedError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"collection": viewOf(found)})
}

func (h *Handler) deleteCollection(c *gin.Context) {
	sess := sessionFrom(c)

	if err := h.collections.Delete(c.Request.Context(), sess.User.ID, c.Param("id")); err != nil {
		respondNestedError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) collectionFavorites(c *gin.Context) {
	sess := sessionFrom(c)

	favs, err := h.collections.Favorites(c.Request.Context(), sess.User.ID, c.Param("id"))
	if err != nil {
		respondNestedError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorites": favs})
}
