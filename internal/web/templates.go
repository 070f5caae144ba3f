package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/d60-Lab/yatube/pkg/render"
	"github.com/d60-Lab/yatube/pkg/storage"
)

//go:embed all:templates
var templateFS embed.FS

// NewRenderer 加载内置模板
func NewRenderer(store storage.Storage) (*render.Renderer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	return render.New(sub, Funcs(store))
}

// Funcs 模板函数
func Funcs(store storage.Storage) template.FuncMap {
	return template.FuncMap{
		"media":      store.URL,
		"linebreaks": linebreaks,
		"date":       func(t time.Time) string { return t.Format("2 January 2006 15:04") },
		"isodate":    func(t time.Time) string { return t.Format(time.RFC3339) },
		"year":       func() int { return time.Now().Year() },
		"pageURL":    pageURL,
		"dict":       dict,
	}
}

// linebreaks 转义后把换行转成 <br>
func linebreaks(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>\n"))
}

// pageURL 保留其他查询参数，只替换页码
func pageURL(q url.Values, n int) string {
	v := url.Values{}
	for k, vs := range q {
		if k != "page" {
			v[k] = vs
		}
	}
	v.Set("page", strconv.Itoa(n))
	return "?" + v.Encode()
}

func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}
