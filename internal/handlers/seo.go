package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"redvibe/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// sitemap 最多列出的帖子数
const sitemapLimit = 500

type SEOHandler struct {
	posts   *services.PostRepository
	siteURL string
	log     *zap.Logger
}

func NewSEOHandler(posts *services.PostRepository, siteURL string, log *zap.Logger) *SEOHandler {
	return &SEOHandler{posts: posts, siteURL: strings.TrimRight(siteURL, "/"), log: log}
}

// RobotsTxt 登录、上传和 AJAX 接口不需要收录
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /login/
Disallow: /signup/
Disallow: /logout/
Disallow: /upload/
Disallow: /profile/
Disallow: /mark-watched/

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// SitemapXML 首页、reels 和最近的帖子详情页
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	now := time.Now().Format("2006-01-02")
	set := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: h.siteURL + "/", LastMod: now, ChangeFreq: "hourly", Priority: 1.0},
			{Loc: h.siteURL + "/reels/", LastMod: now, ChangeFreq: "hourly", Priority: 0.9},
		},
	}

	posts, err := h.posts.ListPosts(c.Request.Context(), services.PostFilter{Limit: sitemapLimit})
	if err != nil {
		h.log.Error("sitemap posts", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	for _, p := range posts {
		// 根据帖子新旧程度调整优先级
		priority, freq := 0.6, "weekly"
		if time.Since(p.CreatedAt) < 7*24*time.Hour {
			priority, freq = 0.8, "daily"
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.siteURL + postURL(p.ID),
			LastMod:    p.CreatedAt.Format("2006-01-02"),
			ChangeFreq: freq,
			Priority:   priority,
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		h.log.Error("encode sitemap", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}

// Healthz 存活探针
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
