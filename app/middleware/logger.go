package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"chainsched/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/pretty"
)

const maxLoggedBody = 1000

// Logger logs each request with latency, status and a compacted body for
// mutating methods.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var body string
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			body = requestBody(c)
		}

		c.Next()

		if c.Writer.Status() == http.StatusNotFound {
			return
		}

		msg := "request handled"
		if body != "" {
			logger.Infof("%s | %3d | %13v | %s %s | body=%s",
				msg, c.Writer.Status(), time.Since(start), c.Request.Method, c.Request.RequestURI, body)
			return
		}
		logger.Infof("%s | %3d | %13v | %s %s",
			msg, c.Writer.Status(), time.Since(start), c.Request.Method, c.Request.RequestURI)
	}
}

// requestBody reads and restores the request body, compacted for logging.
func requestBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	data, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(data))

	if len(data) == 0 {
		return ""
	}
	compacted := pretty.Ugly(data)
	if len(compacted) > maxLoggedBody {
		return string(compacted[:maxLoggedBody]) + "..."
	}
	return string(compacted)
}
