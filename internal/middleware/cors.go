package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS answers browser cross-origin requests. An empty allowlist opens
// the API to any origin; otherwise only listed origins are echoed back.
func CORS(allowlist []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowlist))
	for _, origin := range allowlist {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}
	allowAll := len(allowed) == 0
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			setCORSHeaders(c, "*", false)
		case origin != "":
			if _, ok := allowed[origin]; ok {
				setCORSHeaders(c, origin, true)
			}
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func setCORSHeaders(c *gin.Context, origin string, vary bool) {
	header := c.Writer.Header()
	header.Set("Access-Control-Allow-Origin", origin)
	if vary {
		header.Set("Vary", "Origin")
	}
	header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
}
