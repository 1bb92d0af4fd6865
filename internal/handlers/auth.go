package handlers

import (
	"errors"
	"net/http"
	"strings"

	"redvibe/internal/middleware"
	"redvibe/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	users   *services.UserService
	watched *services.WatchedTracker
	log     *zap.Logger
}

func NewAuthHandler(users *services.UserService, watched *services.WatchedTracker, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, watched: watched, log: log}
}

func (h *AuthHandler) ShowSignup(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	Render(c, http.StatusOK, "auth/signup.html", gin.H{
		"Title":    "Sign up",
		"FullName": "",
		"Email":    "",
	})
}

func checkboxValue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func (h *AuthHandler) Signup(c *gin.Context) {
	in := services.SignupInput{
		FullName:   c.PostForm("full_name"),
		Email:      c.PostForm("email"),
		Password:   c.PostForm("password"),
		ConfirmAge: checkboxValue(c.PostForm("confirm_age")),
	}

	user, err := h.users.Signup(c.Request.Context(), in)
	if err != nil {
		var fe services.FieldErrors
		if errors.As(err, &fe) {
			Render(c, http.StatusBadRequest, "auth/signup.html", gin.H{
				"Title":    "Sign up",
				"Errors":   fe,
				"FullName": in.FullName,
				"Email":    in.Email,
			})
			return
		}
		h.log.Error("signup failed", zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Could not create your account.")
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		h.log.Error("save session", zap.Error(err))
	}
	h.log.Info("user signed up", zap.Uint("user_id", user.ID))
	redirectWithFlash(c, "/", FlashSuccess, "Account created and logged in.")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, safeNext(c.Query("next")))
		return
	}
	Render(c, http.StatusOK, "auth/login.html", gin.H{
		"Title": "Log in",
		"Email": "",
		"Next":  c.Query("next"),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	email := c.PostForm("email")
	next := c.PostForm("next")

	user, err := h.users.Authenticate(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		code := http.StatusUnauthorized
		if !errors.Is(err, services.ErrInvalidCredentials) {
			h.log.Error("login failed", zap.Error(err))
			code = http.StatusInternalServerError
		}
		Render(c, code, "auth/login.html", gin.H{
			"Title": "Log in",
			"Error": "Please enter a correct email and password.",
			"Email": email,
			"Next":  next,
		})
		return
	}

	// 保留 watch_sid，登录前看过的帖子继续有效
	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		h.log.Error("save session", zap.Error(err))
	}
	c.Redirect(http.StatusFound, safeNext(next))
}

// Logout 清空整个会话，包括已看集合
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.watched.Reset(c.Request.Context(), middleware.WatchSessionID(c)); err != nil {
		h.log.Warn("reset watched set", zap.Error(err))
	}

	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/")
}
