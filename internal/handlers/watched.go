package handlers

import (
	"errors"
	"net/http"

	"redvibe/internal/middleware"
	"redvibe/internal/services"
	"redvibe/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WatchedHandler struct {
	watched *services.WatchedTracker
	log     *zap.Logger
}

func NewWatchedHandler(watched *services.WatchedTracker, log *zap.Logger) *WatchedHandler {
	return &WatchedHandler{watched: watched, log: log}
}

const invalidPostIDMessage = "Invalid post_id"

// MarkWatched POST /mark-watched/，JSON 或表单里的 post_id
func (h *WatchedHandler) MarkWatched(c *gin.Context) {
	postID, ok := readPostID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidPostIDMessage})
		return
	}

	count, err := h.watched.MarkWatched(c.Request.Context(), middleware.WatchSessionID(c), postID)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": invalidPostIDMessage})
			return
		}
		h.log.Error("mark watched", zap.Uint("post_id", postID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not record watched post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "watched_count": count})
}

func readPostID(c *gin.Context) (uint, bool) {
	if c.ContentType() == gin.MIMEJSON {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			return 0, false
		}
		id, err := utils.ParseIDValue(body["post_id"])
		return id, err == nil
	}

	id, err := utils.ParseID(c.PostForm("post_id"))
	return id, err == nil
}
