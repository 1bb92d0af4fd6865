package middleware

import (
	"errors"
	"net/http"
	"net/url"

	"redvibe/internal/models"
	"redvibe/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CheckUserKey    = "user"
	WatchSessionKey = "watch_sid"
	SessionUserKey  = "user_id"
)

// CurrentUser 未登录时返回 nil
func CurrentUser(c *gin.Context) *models.User {
	if u, ok := c.Get(CheckUserKey); ok {
		if user, ok := u.(*models.User); ok {
			return user
		}
	}
	return nil
}

func WatchSessionID(c *gin.Context) string {
	return c.GetString(WatchSessionKey)
}

// LoginURL 登录后回跳当前页面
func LoginURL(c *gin.Context) string {
	return "/login/?next=" + url.QueryEscape(c.Request.URL.RequestURI())
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginURL(c))
			c.Abort()
			return
		}
		c.Next()
	}
}

// AuthRequiredJSON 给 AJAX 接口用，未登录返回 401
func AuthRequiredJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"login": LoginURL(c),
			})
			return
		}
		c.Next()
	}
}

// LoadUser retrieves user from session and sets to context
func LoadUser(users *services.UserService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserKey).(uint)
		if ok && userID != 0 {
			user, err := users.GetUser(c.Request.Context(), userID)
			switch {
			case err == nil:
				c.Set(CheckUserKey, user)
			case errors.Is(err, services.ErrNotFound):
				// 账号已不存在，清掉失效的登录态
				session.Delete(SessionUserKey)
				_ = session.Save()
			default:
				log.Error("load session user", zap.Uint("user_id", userID), zap.Error(err))
			}
		}
		c.Next()
	}
}

// WatchSession 为每个浏览器分配已看集合的 id，匿名用户也有
func WatchSession(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		sid, _ := session.Get(WatchSessionKey).(string)
		if sid == "" {
			sid = uuid.NewString()
			session.Set(WatchSessionKey, sid)
			if err := session.Save(); err != nil {
				log.Warn("save watch session", zap.Error(err))
			}
		}
		c.Set(WatchSessionKey, sid)
		c.Next()
	}
}
