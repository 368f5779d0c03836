package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func ConfigCORS(allowedCORSDomains []string) gin.HandlerFunc {
	domains := make([]string, len(allowedCORSDomains))
	for i, domain := range allowedCORSDomains {
		domains[i] = strings.TrimSpace(domain)
	}

	conf := cors.DefaultConfig()
	conf.AllowOrigins = domains
	conf.AllowHeaders = append(conf.AllowHeaders, "Authorization")
	conf.MaxAge = 12 * time.Hour

	return cors.New(conf)
}
