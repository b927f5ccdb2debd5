package middlewares

import (
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
)

// Secure sets the usual security headers. HSTS and the https redirect only apply when tls is on.
func Secure(tls bool) gin.HandlerFunc {
	var stsSeconds int64
	if tls {
		stsSeconds = 31536000
	}

	return secure.New(secure.Config{
		SSLRedirect:           tls,
		STSSeconds:            stsSeconds,
		STSIncludeSubdomains:  tls,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		IENoOpen:              true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})
}
