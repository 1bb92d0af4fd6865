package utils

import (
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxLinkText = 48

// EnhanceHTMLContent 处理渲染后的用户内容：外链加安全属性，过长的链接文字截断，#话题 加样式
func EnhanceHTMLContent(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(template.HTMLEscapeString(htmlStr))
	}

	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
			s.SetAttr("target", "_blank")
			s.SetAttr("rel", "nofollow noopener noreferrer")
		}
		text := s.Text()
		if utf8.RuneCountInString(text) > maxLinkText && text == href {
			runes := []rune(text)
			s.SetText(string(runes[:maxLinkText-1]) + "…")
			s.SetAttr("title", href)
		}
	})

	// 仅处理纯文本段落里的 #话题，段落含其他标签时跳过
	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		text := s.Text()
		if !strings.Contains(text, "#") {
			return
		}
		words := strings.Split(text, " ")
		changed := false
		for j, w := range words {
			if len(w) > 1 && w[0] == '#' {
				words[j] = `<span class="hashtag">` + template.HTMLEscapeString(w) + `</span>`
				changed = true
			} else {
				words[j] = template.HTMLEscapeString(w)
			}
		}
		if changed {
			s.SetHtml(strings.Join(words, " "))
		}
	})

	// goquery renders full document tags if missing, we just want the body content
	html, _ := doc.Find("body").Html()
	if html == "" {
		html, _ = doc.Html()
	}

	return template.HTML(html)
}
