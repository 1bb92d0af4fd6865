package handlers

import (
	"net/http"
	"strings"

	"redvibe/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

var flashLevels = []string{FlashSuccess, FlashInfo, FlashError}

type FlashMessage struct {
	Level string
	Text  string
}

// AddFlash 下一次渲染页面时展示
func AddFlash(c *gin.Context, level, text string) {
	session := sessions.Default(c)
	session.AddFlash(text, "_flash_"+level)
	_ = session.Save()
}

func popFlashes(c *gin.Context) []FlashMessage {
	session := sessions.Default(c)
	var out []FlashMessage
	for _, level := range flashLevels {
		for _, f := range session.Flashes("_flash_" + level) {
			if text, ok := f.(string); ok {
				out = append(out, FlashMessage{Level: level, Text: text})
			}
		}
	}
	if len(out) > 0 {
		_ = session.Save()
	}
	return out
}

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path
	obj["Messages"] = popFlashes(c)

	c.HTML(code, name, obj)
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{
		"Title": http.StatusText(code),
		"Code":  code,
		"Error": message,
	})
}

// redirectWithFlash 表单提交后的常规回跳
func redirectWithFlash(c *gin.Context, location, level, text string) {
	AddFlash(c, level, text)
	c.Redirect(http.StatusFound, location)
}

// safeNext 只允许站内相对路径
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}
