package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Storage 上传文件存储，返回可回取的相对引用
type Storage interface {
	Save(ctx context.Context, dir string, fh *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

// Local 本地磁盘存储
type Local struct {
	root    string
	baseURL string
}

func NewLocal(root, baseURL string) *Local {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Local{root: root, baseURL: baseURL}
}

// Root 存储根目录
func (s *Local) Root() string { return s.root }

// Save 以 uuid 重命名后写入 root/dir，扩展名按内容探测
func (s *Local) Save(ctx context.Context, dir string, fh *multipart.FileHeader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ext := filepath.Ext(fh.Filename)
	if mt, err := mimetype.DetectReader(src); err == nil && mt.Extension() != "" && !mt.Is("application/octet-stream") {
		ext = mt.Extension()
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
		return "", err
	}
	ref := path.Join(dir, uuid.NewString()+strings.ToLower(ext))
	if err := writeFile(filepath.Join(s.root, filepath.FromSlash(ref)), src); err != nil {
		return "", fmt.Errorf("write %s: %w", ref, err)
	}
	return ref, nil
}

// writeFile 写入失败时删除已写出的部分
func writeFile(name string, src io.Reader) (err error) {
	dst, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(name)
		}
	}()
	_, err = io.Copy(dst, src)
	return err
}

func (s *Local) Delete(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(ref)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Local) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.baseURL + ref
}

// IsImage 按文件内容（而非扩展名或客户端声明）判断是否为图片
func IsImage(fh *multipart.FileHeader) (bool, error) {
	f, err := fh.Open()
	if err != nil {
		return false, err
	}
	defer f.Close()
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return false, err
	}
	// svg 可携带脚本，不当作图片
	if mt.Is("image/svg+xml") {
		return false, nil
	}
	return strings.HasPrefix(mt.String(), "image/"), nil
}
