package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"painel/cache"
	"painel/logger"
	"painel/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResponseCache guarda respostas 2xx de GET sob prefix+path+query.
// A invalidação fica a cargo do cache.Invalidator.
func ResponseCache(store cache.Cache, prefix string, ttl time.Duration) gin.HandlerFunc {
	m := metrics.Get()
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || store == nil {
			c.Next()
			return
		}

		key := cacheKey(prefix, c.Request.URL.Path, c.Request.URL.RawQuery)
		ctx := c.Request.Context()

		if body, ok := store.Get(ctx, key); ok {
			m.CacheHits.WithLabelValues(prefix).Inc()
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}
		m.CacheMisses.WithLabelValues(prefix).Inc()

		writer := &cachedResponseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		status := writer.Status()
		if status >= 200 && status < 300 && writer.body.Len() > 0 {
			if err := store.Set(ctx, key, writer.body.Bytes(), ttl); err != nil {
				logger.Log.Debug("cache: falha ao gravar resposta", zap.String("key", key), zap.Error(err))
			}
		}
	}
}

func cacheKey(prefix, path, query string) string {
	if query == "" {
		return prefix + path
	}
	return fmt.Sprintf("%s%s?%s", prefix, path, query)
}

type cachedResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cachedResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cachedResponseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
