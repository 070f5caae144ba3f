package form

import "strings"

type CommentForm struct {
	Text   string `form:"text" validate:"required"`
	Errors Errors `form:"-"`
}

func (f *CommentForm) Validate() bool {
	f.Errors = Errors{}
	f.Text = strings.TrimSpace(f.Text)
	check(f, f.Errors)
	return !f.Errors.Any()
}
