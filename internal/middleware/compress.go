package middleware

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// CompressConfig tunes the Brotli middleware.
type CompressConfig struct {
	Quality int
	// MinLength is the smallest body worth compressing.
	MinLength int
}

var DefaultCompressConfig = CompressConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
}

// bufferedWriter holds the whole body so the encoding can be decided once
// the handler is done. A Flush means the handler is streaming; from then on
// everything goes out uncompressed.
type bufferedWriter struct {
	gin.ResponseWriter
	body        bytes.Buffer
	passthrough bool
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	if w.passthrough {
		return w.ResponseWriter.Write(data)
	}
	return w.body.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	if w.passthrough {
		return w.ResponseWriter.WriteString(s)
	}
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Flush() {
	if !w.passthrough {
		w.passthrough = true
		_, _ = w.ResponseWriter.Write(w.body.Bytes())
		w.body.Reset()
	}
	w.ResponseWriter.Flush()
}

// Compress Brotli-encodes JSON responses for clients that accept it.
// Streams (SSE, WebSocket) pass through untouched.
func Compress(cfg CompressConfig) gin.HandlerFunc {
	if cfg.Quality < 0 || cfg.Quality > 11 {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultCompressConfig.MinLength
	}

	return func(c *gin.Context) {
		if isStream(c.Request) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		orig := c.Writer
		bw := &bufferedWriter{ResponseWriter: orig}
		c.Writer = bw
		c.Next()
		c.Writer = orig
		if bw.passthrough {
			return
		}

		orig.Header().Add("Vary", "Accept-Encoding")
		if bw.body.Len() < cfg.MinLength {
			_, _ = orig.Write(bw.body.Bytes())
			return
		}

		var out bytes.Buffer
		enc := brotli.NewWriterLevel(&out, cfg.Quality)
		if _, err := enc.Write(bw.body.Bytes()); err != nil || enc.Close() != nil {
			_, _ = orig.Write(bw.body.Bytes())
			return
		}

		orig.Header().Set("Content-Encoding", "br")
		orig.Header().Set("Content-Length", strconv.Itoa(out.Len()))
		_, _ = orig.Write(out.Bytes())
	}
}

func isStream(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return true
	}
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
