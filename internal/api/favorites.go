package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faves_sorter/internal/domain"
)

func (h *Handler) listFavorites(c *gin.Context) {
	sess := sessionFrom(c)

	var (
		favs []domain.Favorite
		err  error
	)
	if beforeID := c.Query("before_id"); beforeID != "" {
		favs, err = h.sync.Before(c.Request.Context(), sess, beforeID)
	} else {
		favs, err = h.sync.Latest(c.Request.Context(), sess)
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorites": favs})
}

type fileRequest struct {
	Processed    *bool   `json:"processed"`
	CollectionID *string `json:"collection_id"`
}

func (h *Handler) fileFavorite(c *gin.Context) {
	sess := sessionFrom(c)

	var req fileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, domain.NewValidationError("request body is invalid"))
		return
	}

	fav, err := h.favorites.File(c.Request.Context(), sess.User.ID, c.Param("id"), domain.FavoritePatch{
		Processed:    req.Processed,
		CollectionID: req.CollectionID,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorite": fav})
}

func (h *Handler) profile(c *gin.Context) {
	sess := sessionFrom(c)

	profile, err := h.authorizer.ShowUser(c.Request.Context(), sess.User)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
