package router

import (
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"redvibe/internal/services"
	"redvibe/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

// views 模板名 -> views 目录下的文件
var views = []string{
	"feed/home.html",
	"feed/reels.html",
	"upload.html",
	"post/detail.html",
	"auth/signup.html",
	"auth/login.html",
	"user/profile.html",
	"error.html",
}

func timeAgo(t time.Time) string {
	seconds := int(time.Since(t).Seconds())
	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return plural(seconds/60, "minute")
	case seconds < 86400:
		return plural(seconds/3600, "hour")
	case seconds < 2592000:
		return plural(seconds/86400, "day")
	case seconds < 31536000:
		return plural(seconds/2592000, "month")
	}
	return plural(seconds/31536000, "year")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

var funcMap = template.FuncMap{
	"dict": func(values ...interface{}) (map[string]interface{}, error) {
		if len(values)%2 != 0 {
			return nil, fmt.Errorf("invalid dict call")
		}
		dict := make(map[string]interface{}, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict keys must be strings")
			}
			dict[key] = values[i+1]
		}
		return dict, nil
	},
	"add": func(a, b int) int {
		return a + b
	},
	"timeAgo":  timeAgo,
	"markdown": utils.RenderMarkdown,
	"initials": utils.Initials,
	"formatMB": services.FormatMB,
}

// LoadTemplates 每个页面与 layouts、components 组合成独立模板，避免 block 名冲突
func LoadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}
	components, err := filepath.Glob(templatesDir + "/components/*.html")
	if err != nil {
		panic(err)
	}

	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+len(components)+1)
		files = append(files, layouts...)
		files = append(files, components...)
		files = append(files, filepath.Join(templatesDir, "views", view))
		return files
	}

	for _, name := range views {
		r.AddFromFilesFuncs(name, funcMap, assemble(name)...)
	}
	return r
}
