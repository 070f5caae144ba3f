package form

import (
	"strings"

	"github.com/d60-Lab/yatube/internal/service"
)

// ContactForm 联系表单，不落库
type ContactForm struct {
	Subject  string `form:"subject" validate:"required,max=100"`
	Message  string `form:"message" validate:"required"`
	Sender   string `form:"sender" validate:"required,email"`
	CCMyself string `form:"cc_myself"`
	Errors   Errors `form:"-"`
}

func (f *ContactForm) Validate() bool {
	f.Errors = Errors{}
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
	f.Sender = strings.TrimSpace(f.Sender)
	check(f, f.Errors)
	return !f.Errors.Any()
}

// CC 复选框是否勾选；未提交时为 false
func (f *ContactForm) CC() bool {
	switch strings.ToLower(f.CCMyself) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func (f *ContactForm) Contact() *service.ContactMessage {
	return &service.ContactMessage{Subject: f.Subject, Message: f.Message, Sender: f.Sender, CCMyself: f.CC()}
}
