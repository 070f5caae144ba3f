package testutil

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// PNG 一张 4x4 的合法 PNG
func PNG(tb testing.TB) []byte {
	tb.Helper()
	var buf bytes.Buffer
	require.NoError(tb, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

// File 表单中的一个上传文件
type File struct {
	Field   string
	Name    string
	Content []byte
}

// Multipart 构造 multipart/form-data 请求体，返回 body 与 Content-Type
func Multipart(tb testing.TB, fields map[string]string, files ...File) (io.Reader, string) {
	tb.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(tb, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.Field, f.Name)
		require.NoError(tb, err)
		_, err = fw.Write(f.Content)
		require.NoError(tb, err)
	}
	require.NoError(tb, mw.Close())
	return &body, mw.FormDataContentType()
}

// FileHeader 通过真实的 multipart 解析得到 FileHeader
func FileHeader(tb testing.TB, name string, content []byte) *multipart.FileHeader {
	tb.Helper()
	body, ct := Multipart(tb, nil, File{Field: "file", Name: name, Content: content})
	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", ct)
	require.NoError(tb, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}
