package router

import (
	"net/http"

	"redvibe/internal/config"
	"redvibe/internal/handlers"
	"redvibe/internal/middleware"
	"redvibe/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options 组装 HTTP 层需要的全部依赖
type Options struct {
	Log     *zap.Logger
	Session config.SessionConfig
	Media   config.MediaConfig
	Web     config.WebConfig

	// ServeMedia 本地存储时由 gin 直接提供 /media 静态文件
	ServeMedia bool

	Users        *services.UserService
	Posts        *services.PostRepository
	Feed         *services.FeedComposer
	Watched      *services.WatchedTracker
	Interactions *services.Interactions
}

func New(o Options) *gin.Engine {
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log))

	store := cookie.NewStore([]byte(o.Session.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(o.Session.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   o.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(o.Session.Name, store))

	r.HTMLRender = LoadTemplates(o.Web.TemplatesDir)

	// Static Assets
	r.Static("/static", o.Web.StaticDir)
	if o.ServeMedia {
		r.Static(o.Media.URLPrefix, o.Media.Root)
	}

	r.Use(middleware.LoadUser(o.Users, log), middleware.WatchSession(log))

	RegisterRoutes(r, o, log)

	r.NoRoute(func(c *gin.Context) {
		handlers.RenderError(c, http.StatusNotFound, "Page not found.")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.RenderError(c, http.StatusMethodNotAllowed, "Method not allowed.")
	})
	return r
}

func RegisterRoutes(r *gin.Engine, o Options, log *zap.Logger) {
	// Handlers
	feedHandler := handlers.NewFeedHandler(o.Feed, o.Watched, log)
	watchedHandler := handlers.NewWatchedHandler(o.Watched, log)
	uploadHandler := handlers.NewUploadHandler(o.Interactions, o.Media.MaxUploadBytes(), log)
	postHandler := handlers.NewPostHandler(o.Posts, o.Interactions, log)
	authHandler := handlers.NewAuthHandler(o.Users, o.Watched, log)
	userHandler := handlers.NewUserHandler(o.Users, o.Posts, log)
	seoHandler := handlers.NewSEOHandler(o.Posts, o.Web.SiteURL, log)

	// 公共路由 (Public Routes)
	r.GET("/", feedHandler.Home)                         // 首页
	r.GET("/reels/", feedHandler.Reels)                  // 只看未看过的
	r.POST("/mark-watched/", watchedHandler.MarkWatched) // 记录已看
	r.GET("/post/:id/", postHandler.Detail)              // 帖子详情
	r.GET("/robots.txt", seoHandler.RobotsTxt)           // robots
	r.GET("/sitemap.xml", seoHandler.SitemapXML)         // sitemap
	r.GET("/healthz", handlers.Healthz)                  // 健康检查
	r.GET("/signup/", authHandler.ShowSignup)            // 注册页面
	r.POST("/signup/", authHandler.Signup)               // 提交注册
	r.GET("/login/", authHandler.ShowLogin)              // 登录页面
	r.POST("/login/", authHandler.Login)                 // 提交登录
	r.GET("/logout/", authHandler.Logout)                // 退出登录
	r.POST("/logout/", authHandler.Logout)               // 退出登录

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/upload/", uploadHandler.Show)              // 上传页面
		authorized.POST("/upload/", uploadHandler.Create)           // 提交上传
		authorized.POST("/post/:id/comment/", postHandler.Comment)  // 发表评论
		authorized.POST("/post/:id/report/", postHandler.Report)    // 举报
		authorized.GET("/post/:id/report/", postHandler.ReportPage) // 举报没有单独页面
		authorized.GET("/profile/:user_id/", userHandler.Profile)   // 用户主页
	}

	// AJAX 接口未登录返回 401
	api := r.Group("/")
	api.Use(middleware.AuthRequiredJSON())
	{
		api.POST("/post/:id/like/", postHandler.Like) // 点赞/取消点赞
	}
}
