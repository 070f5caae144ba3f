package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/form"
)

func (v *Views) Contact(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		v.render(c, http.StatusOK, "contact.html", gin.H{"form": &form.ContactForm{Errors: form.Errors{}}})
		return
	}
	f := &form.ContactForm{}
	if err := c.ShouldBind(f); err != nil || !f.Validate() {
		if f.Errors == nil {
			f.Errors = form.Errors{}
		}
		v.render(c, http.StatusOK, "contact.html", gin.H{"form": f})
		return
	}
	if err := v.svc.Contact.Send(c.Request.Context(), f.Contact()); err != nil {
		v.fail(c, err)
		return
	}
	v.render(c, http.StatusOK, "contact_done.html", gin.H{"subject": f.Subject})
}
