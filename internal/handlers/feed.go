package handlers

import (
	"net/http"

	"redvibe/internal/middleware"
	"redvibe/internal/models"
	"redvibe/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FeedHandler struct {
	feed    *services.FeedComposer
	watched *services.WatchedTracker
	log     *zap.Logger
}

func NewFeedHandler(feed *services.FeedComposer, watched *services.WatchedTracker, log *zap.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, watched: watched, log: log}
}

// Home 首页 /
func (h *FeedHandler) Home(c *gin.Context) {
	posts, ok := h.compose(c, services.FeedHome)
	if !ok {
		return
	}
	Render(c, http.StatusOK, "feed/home.html", gin.H{
		"Title": "RedVibe",
		"Posts": posts,
	})
}

// Reels /reels/ 只展示未看过的帖子
func (h *FeedHandler) Reels(c *gin.Context) {
	posts, ok := h.compose(c, services.FeedReels)
	if !ok {
		return
	}
	Render(c, http.StatusOK, "feed/reels.html", gin.H{
		"Title": "Reels",
		"Posts": posts,
	})
}

func (h *FeedHandler) compose(c *gin.Context, mode services.FeedMode) ([]models.Post, bool) {
	ctx := c.Request.Context()

	// 已看集合读不到时退化为不过滤，页面照常展示
	watched, err := h.watched.GetWatched(ctx, middleware.WatchSessionID(c))
	if err != nil {
		h.log.Warn("load watched set", zap.Error(err))
		watched = services.WatchedSet{}
	}

	var viewerID uint
	if user := middleware.CurrentUser(c); user != nil {
		viewerID = user.ID
	}

	posts, err := h.feed.Compose(ctx, mode, viewerID, watched)
	if err != nil {
		h.log.Error("compose feed", zap.Int("mode", int(mode)), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not load the feed.")
		return nil, false
	}
	return posts, true
}
