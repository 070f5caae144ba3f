package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/pkg/cache"
	"github.com/d60-Lab/yatube/pkg/logger"
)

const CacheStatusHeader = "X-Cache"

// PageCacheKey 方法 + 完整路径与查询串 + 访问者身份
func PageCacheKey(c *gin.Context) string {
	viewer := "anon"
	if id := auth.UserID(c.Request.Context()); id != 0 {
		viewer = fmt.Sprintf("u%d", id)
	}
	return c.Request.Method + ":" + c.Request.URL.RequestURI() + ":" + viewer
}

type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// PageCache 缓存 GET 的 200 响应 ttl 时长；期间的写入在过期前不可见。
// store 为 nil 时直接放行
func PageCache(store *cache.PageStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || ttl <= 0 || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := PageCacheKey(c)

		entry, err := store.Get(ctx, key)
		switch {
		case err == nil:
			c.Header(CacheStatusHeader, "HIT")
			c.Data(entry.Status, entry.ContentType, entry.Body)
			c.Abort()
			return
		case !errors.Is(err, cache.ErrMiss):
			logger.Warn("page cache read failed", zap.String("key", key), zap.Error(err))
		}

		c.Header(CacheStatusHeader, "MISS")
		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()
		c.Writer = w.ResponseWriter

		if w.Status() != http.StatusOK || len(c.Errors) > 0 {
			return
		}
		e := &cache.Entry{Status: http.StatusOK, ContentType: w.Header().Get("Content-Type"), Body: w.body.Bytes()}
		if err := store.Set(ctx, key, e, ttl); err != nil {
			logger.Warn("page cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
}
