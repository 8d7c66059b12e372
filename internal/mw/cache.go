package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status int
	header http.Header
	body   []byte
}

// teeWriter copies the response body as gin writes it, so a successful
// response can be replayed from the cache later.
type teeWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w teeWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w teeWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache serves GET responses from an in-memory store keyed by request URI.
// Fleet state only changes when a pipeline run commits, so responses stay
// valid for the whole TTL; a manual trigger flushes the store to make fresh
// results visible immediately.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if hit, ok := store.Get(key); ok {
			cached := hit.(cachedResponse)
			for k, v := range cached.header {
				c.Writer.Header()[k] = v
			}
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		tee := &teeWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = tee

		c.Next()

		// Errors and rate-limit rejections stay uncached.
		if tee.Status() >= 200 && tee.Status() < 300 {
			store.Set(key, cachedResponse{
				status: tee.Status(),
				header: tee.Header().Clone(),
				body:   tee.body.Bytes(),
			}, ttl)
		}
	}
}
