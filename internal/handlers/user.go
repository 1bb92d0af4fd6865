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

type UserHandler struct {
	users *services.UserService
	posts *services.PostRepository
	log   *zap.Logger
}

func NewUserHandler(users *services.UserService, posts *services.PostRepository, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, posts: posts, log: log}
}

// Profile - 用户主页 /profile/:user_id/
func (h *UserHandler) Profile(c *gin.Context) {
	id, err := utils.ParseID(c.Param("user_id"))
	if err != nil {
		RenderError(c, http.StatusNotFound, "User not found.")
		return
	}

	ctx := c.Request.Context()
	profileUser, err := h.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			RenderError(c, http.StatusNotFound, "User not found.")
			return
		}
		h.log.Error("load profile user", zap.Uint("user_id", id), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	// 主页展示全部帖子，不受已看过滤
	posts, err := h.posts.ListPosts(ctx, services.PostFilter{CreatorID: profileUser.ID})
	if err == nil {
		err = h.posts.Annotate(ctx, posts, middleware.CurrentUser(c).ID)
	}
	if err != nil {
		h.log.Error("load profile posts", zap.Uint("user_id", id), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	likes := 0
	for _, p := range posts {
		likes += p.LikeCount
	}

	Render(c, http.StatusOK, "user/profile.html", gin.H{
		"Title":       profileUser.DisplayName(),
		"ProfileUser": profileUser,
		"Posts":       posts,
		"TotalLikes":  likes,
		"IsOwner":     middleware.CurrentUser(c).ID == profileUser.ID,
	})
}
