package form

import (
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/storage"
)

const invalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// PostForm 创建/编辑帖子
type PostForm struct {
	Text       string `form:"text" validate:"required"`
	Group      string `form:"group"`
	AudioTitle string `form:"audio_title" validate:"max=30"`

	Image *multipart.FileHeader `form:"-"`
	Audio *multipart.FileHeader `form:"-"`

	// MaxUploadBytes 单个文件上限，0 为不限
	MaxUploadBytes int64  `form:"-"`
	Errors         Errors `form:"-"`

	groupID *uint
}

// PostFormFrom 编辑页的初始值
func PostFormFrom(p *model.Post) *PostForm {
	f := &PostForm{Text: p.Text, Errors: Errors{}}
	if p.GroupID != nil {
		f.Group = strconv.FormatUint(uint64(*p.GroupID), 10)
	}
	if p.AudioTitle != nil {
		f.AudioTitle = *p.AudioTitle
	}
	return f
}

func (f *PostForm) Validate() bool {
	f.Errors = Errors{}
	f.Text = strings.TrimSpace(f.Text)
	f.AudioTitle = strings.TrimSpace(f.AudioTitle)
	check(f, f.Errors)

	f.groupID = nil
	if g := strings.TrimSpace(f.Group); g != "" {
		id, err := strconv.ParseUint(g, 10, 64)
		if err != nil || id == 0 {
			f.Errors.Add("group", "Select a valid choice. That choice is not one of the available choices.")
		} else {
			gid := uint(id)
			f.groupID = &gid
		}
	}

	if f.Image != nil {
		if f.tooLarge(f.Image) {
			f.Errors.Add("image", f.sizeMessage())
		} else if ok, err := storage.IsImage(f.Image); err != nil || !ok {
			f.Errors.Add("image", invalidImage)
		}
	}
	if f.Audio != nil && f.tooLarge(f.Audio) {
		f.Errors.Add("audio", f.sizeMessage())
	}
	return !f.Errors.Any()
}

func (f *PostForm) tooLarge(fh *multipart.FileHeader) bool {
	return f.MaxUploadBytes > 0 && fh.Size > f.MaxUploadBytes
}

func (f *PostForm) sizeMessage() string {
	return fmt.Sprintf("The file is too large (limit %d bytes).", f.MaxUploadBytes)
}

// UnknownGroup 分组不存在时由调用方回填
func (f *PostForm) UnknownGroup() {
	f.Errors.Add("group", "Select a valid choice. That choice is not one of the available choices.")
}

// Input 校验通过后的服务层输入
func (f *PostForm) Input() *service.PostInput {
	in := &service.PostInput{
		Text:    f.Text,
		GroupID: f.groupID,
		Image:   f.Image,
		Audio:   f.Audio,
	}
	if f.AudioTitle != "" {
		title := f.AudioTitle
		in.AudioTitle = &title
	}
	return in
}
