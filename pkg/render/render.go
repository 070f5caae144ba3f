package render

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"text/template/parse"

	ginrender "github.com/gin-gonic/gin/render"
)

// LayoutName 所有页面都从布局模板开始执行
const LayoutName = "base"

// Renderer 每个页面独立一棵模板树（布局 + 公共片段 + 页面），
// 避免多个页面的同名 block 互相覆盖。实现 gin 的 render.HTMLRender。
type Renderer struct {
	templates map[string]*template.Template
}

var _ ginrender.HTMLRender = (*Renderer)(nil)

// New 从 fsys 加载模板：layouts/*.html、includes/*.html 为公共部分，
// pages/ 下的每个文件是一个页面，以其相对 pages/ 的路径命名（如 "misc/404.html"）。
func New(fsys fs.FS, funcs template.FuncMap) (*Renderer, error) {
	shared, err := collect(fsys, "layouts", "includes")
	if err != nil {
		return nil, err
	}
	if len(shared) == 0 {
		return nil, fmt.Errorf("render: no layout templates found")
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	err = fs.WalkDir(fsys, "pages", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".html") {
			return nil
		}
		name := strings.TrimPrefix(p, "pages/")
		files := append(append([]string(nil), shared...), p)
		t, err := template.New(path.Base(p)).Funcs(funcs).ParseFS(fsys, files...)
		if err != nil {
			return fmt.Errorf("render: parse %s: %w", name, err)
		}
		if err := checkRefs(t); err != nil {
			return fmt.Errorf("render: %s: %w", name, err)
		}
		r.templates[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func collect(fsys fs.FS, dirs ...string) ([]string, error) {
	var files []string
	for _, dir := range dirs {
		matches, err := fs.Glob(fsys, dir+"/*.html")
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

// checkRefs 页面树中 {{template}} 引用的模板必须都已定义
func checkRefs(t *template.Template) error {
	for _, tt := range t.Templates() {
		if tt.Tree == nil {
			continue
		}
		var undefined string
		walk(tt.Tree.Root, func(ref string) {
			if undefined == "" && t.Lookup(ref) == nil {
				undefined = ref
			}
		})
		if undefined != "" {
			return fmt.Errorf("template %q references undefined template %q", tt.Name(), undefined)
		}
	}
	return nil
}

func walk(n parse.Node, fn func(string)) {
	switch n := n.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			walk(c, fn)
		}
	case *parse.TemplateNode:
		fn(n.Name)
	case *parse.IfNode:
		walk(n.List, fn)
		walk(n.ElseList, fn)
	case *parse.RangeNode:
		walk(n.List, fn)
		walk(n.ElseList, fn)
	case *parse.WithNode:
		walk(n.List, fn)
		walk(n.ElseList, fn)
	}
}

// Has 页面是否存在
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Instance 返回页面渲染器；未知页面在渲染时报错
func (r *Renderer) Instance(name string, data any) ginrender.Render {
	t, ok := r.templates[name]
	if !ok {
		return missing(name)
	}
	return ginrender.HTML{Template: t, Name: LayoutName, Data: data}
}

type missing string

func (m missing) Render(w http.ResponseWriter) error {
	return fmt.Errorf("render: template %q not found", string(m))
}

func (m missing) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}
