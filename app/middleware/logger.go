package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"nodemonitor/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tidwall/pretty"
)

const requestIDHeader = "X-Request-ID"

var secretFieldPattern = regexp.MustCompile(`("(?:password|token|code)"\s*:\s*)"[^"]*"`)

// Logger tags each request with a trace id and logs it on completion.
// Request bodies are logged compacted with secrets masked.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		traceID := c.GetHeader(requestIDHeader)
		if traceID == "" || len(traceID) > 64 {
			traceID = uuid.NewString()
		}
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		c.Header(requestIDHeader, traceID)

		var bodyStr string
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			bodyStr = getRequestBody(c)
		}

		c.Next()

		if c.Writer.Status() == http.StatusNotFound {
			return
		}

		logMsg := fmt.Sprintf("[GIN] %3d | %13v | %15s | %s | %s",
			c.Writer.Status(),
			time.Since(startTime),
			c.ClientIP(),
			c.Request.Method,
			c.Request.URL.Path,
		)
		if bodyStr != "" {
			logMsg += fmt.Sprintf("\nRequest Body: %s", bodyStr)
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.ErrorCtx(c.Request.Context(), "%s", logMsg)
			return
		}
		logger.InfoCtx(c.Request.Context(), "%s", logMsg)
	}
}

// getRequestBody gets request body content
func getRequestBody(c *gin.Context) string {
	var bodyBytes []byte
	if c.Request.Body != nil {
		bodyBytes, _ = io.ReadAll(c.Request.Body)
		// reading drains the body
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}
	return MaskSecrets(CompressBody(string(bodyBytes)))
}

// CompressBody compresses JSON using pretty package
func CompressBody(body string) string {
	if len(body) == 0 {
		return ""
	}

	compressed := pretty.Ugly([]byte(body))
	if len(compressed) > 1000 {
		return string(compressed[:1000]) + "..."
	}
	return string(compressed)
}

// MaskSecrets replaces password, token and code values in a JSON body
func MaskSecrets(body string) string {
	return secretFieldPattern.ReplaceAllString(body, `$1"***"`)
}
