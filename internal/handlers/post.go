package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"redvibe/internal/middleware"
	"redvibe/internal/models"
	"redvibe/internal/services"
	"redvibe/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportReason struct {
	Code  string
	Label string
}

var reportReasons = []ReportReason{
	{Code: models.ReportReasonSpam, Label: "Spam"},
	{Code: models.ReportReasonNudity, Label: "Nudity or sexual content"},
	{Code: models.ReportReasonViolence, Label: "Violence"},
	{Code: models.ReportReasonHarassment, Label: "Harassment"},
	{Code: models.ReportReasonCopyright, Label: "Copyright"},
	{Code: models.ReportReasonOther, Label: "Other"},
}

type PostHandler struct {
	posts        *services.PostRepository
	interactions *services.Interactions
	log          *zap.Logger
}

func NewPostHandler(posts *services.PostRepository, interactions *services.Interactions, log *zap.Logger) *PostHandler {
	return &PostHandler{posts: posts, interactions: interactions, log: log}
}

func postURL(id uint) string {
	return fmt.Sprintf("/post/%d/", id)
}

// Detail 帖子详情 /post/:id/
func (h *PostHandler) Detail(c *gin.Context) {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		RenderError(c, http.StatusNotFound, "Post not found.")
		return
	}

	ctx := c.Request.Context()
	post, err := h.posts.GetPost(ctx, id)
	if err != nil {
		h.renderLookupError(c, id, err)
		return
	}

	var viewerID uint
	if user := middleware.CurrentUser(c); user != nil {
		viewerID = user.ID
	}
	annotated := []models.Post{*post}
	if err := h.posts.Annotate(ctx, annotated, viewerID); err != nil {
		h.log.Error("annotate post", zap.Uint("post_id", id), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not load the post.")
		return
	}

	Render(c, http.StatusOK, "post/detail.html", gin.H{
		"Title":         "Post by " + post.User.DisplayName(),
		"Post":          annotated[0],
		"ReportReasons": reportReasons,
		"MaxComment":    services.MaxCommentLength,
	})
}

// Comment POST /post/:id/comment/
func (h *PostHandler) Comment(c *gin.Context) {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		RenderError(c, http.StatusNotFound, "Post not found.")
		return
	}

	_, err = h.interactions.Comment(c.Request.Context(), middleware.CurrentUser(c), id, c.PostForm("text"))
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, postURL(id))
	case errors.Is(err, services.ErrValidation):
		redirectWithFlash(c, postURL(id), FlashError,
			fmt.Sprintf("Comments must be between 1 and %d characters.", services.MaxCommentLength))
	default:
		h.renderLookupError(c, id, err)
	}
}

// Like POST /post/:id/like/，点赞与取消共用
func (h *PostHandler) Like(c *gin.Context) {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	status, likes, err := h.interactions.ToggleLike(c.Request.Context(), middleware.CurrentUser(c), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": status, "likes": likes})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	default:
		h.log.Error("toggle like", zap.Uint("post_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update like"})
	}
}

// Report POST /post/:id/report/
func (h *PostHandler) Report(c *gin.Context) {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		RenderError(c, http.StatusNotFound, "Post not found.")
		return
	}

	_, err = h.interactions.Report(c.Request.Context(), middleware.CurrentUser(c), id, c.PostForm("reason"), c.PostForm("details"))
	if err != nil {
		h.renderLookupError(c, id, err)
		return
	}
	redirectWithFlash(c, postURL(id), FlashInfo, "Thank you for your report.")
}

// ReportPage GET 请求没有页面，回到首页
func (h *PostHandler) ReportPage(c *gin.Context) {
	c.Redirect(http.StatusFound, "/")
}

func (h *PostHandler) renderLookupError(c *gin.Context, id uint, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		RenderError(c, http.StatusNotFound, "Post not found.")
	case errors.Is(err, services.ErrUnauthenticated):
		c.Redirect(http.StatusFound, middleware.LoginURL(c))
	default:
		h.log.Error("post request failed", zap.Uint("post_id", id), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Something went wrong.")
	}
}
